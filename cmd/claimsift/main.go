// Package main provides the claimsift CLI entry point.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "claimsift",
	Short: "Semantic clause retrieval and claim decisions",
	Long: `claimsift answers natural-language claim queries over a corpus of
policy documents. Documents are split into clauses, embedded, and
indexed for exact top-k similarity search; retrieved clauses feed a
rule engine that produces an approved/rejected decision with a
justification.

All commands output JSON by default for easy integration with other
tools; pass --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}
