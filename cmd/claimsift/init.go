package main

import (
	"os"

	"github.com/claimsift/claimsift/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new claimsift repository",
	Long: `Initialize a new claimsift repository in the current directory.

Creates:
  .claimsift/
  ├── config.yml      # Default config
  └── cache/          # Index artifacts and metadata (gitignored)`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root := os.Getenv("CLAIMSIFT_ROOT")
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			exitWithError(ExitError, "getting current directory: %v", err)
		}
		root = cwd
	}

	if config.IsRepository(root) {
		exitWithError(ExitError, "directory already contains a claimsift repository")
	}

	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}

	cfg := config.Default()
	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "writing config: %v", err)
	}

	if humanOutput {
		outputHuman("Initialized claimsift repository in %s\n", config.ClaimsiftPath(root))
		return nil
	}
	return outputJSON(StatusResponse{Status: "initialized", Path: config.ClaimsiftPath(root)})
}
