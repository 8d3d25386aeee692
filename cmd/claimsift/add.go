package main

import (
	"context"

	"github.com/claimsift/claimsift/internal/clause"
	"github.com/claimsift/claimsift/internal/config"
	"github.com/claimsift/claimsift/internal/ingest"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(addCmd)
}

// AddResult is the response for the add command.
type AddResult struct {
	Status       string   `json:"status"`
	ClausesAdded int      `json:"clauses_added"`
	TotalClauses int      `json:"total_clauses"`
	Files        []string `json:"files"`
}

var addCmd = &cobra.Command{
	Use:   "add <file>...",
	Short: "Add documents to the existing index",
	Long: `Incrementally add one or more documents to the index. Only the new
documents are embedded; existing vectors and clauses are untouched.

The index must already exist; run 'claimsift ingest' first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	root := mustFindRepository()
	cfg := mustLoadConfig(root)

	var newClauses []clause.Clause
	for _, path := range args {
		fileClauses, err := ingest.File(path)
		if err != nil {
			exitWithError(ExitError, "loading %s: %v", path, err)
		}
		newClauses = append(newClauses, fileClauses...)
	}
	if len(newClauses) == 0 {
		exitWithError(ExitNoDocuments, "no clauses extracted from %d file(s)", len(args))
	}

	provider := newProvider(cfg)
	mustCheckOllama(ctx, provider)

	r := mustLoadRetriever(root, cfg)
	if err := r.AddClauses(ctx, newClauses); err != nil {
		exitWithError(ExitError, "adding clauses: %v", err)
	}

	prefix := cfg.IndexPrefix
	if prefix == "" {
		prefix = config.IndexPrefix(root)
	}
	if err := r.Save(prefix); err != nil {
		exitWithError(ExitError, "saving index: %v", err)
	}
	if err := clause.WriteAll(config.CorpusPath(root), r.Clauses()); err != nil {
		exitWithError(ExitError, "writing corpus file: %v", err)
	}

	recordMetadata(root, provider.ModelName(), newClauses, false)

	result := AddResult{
		Status:       "added",
		ClausesAdded: len(newClauses),
		TotalClauses: r.Len(),
		Files:        args,
	}

	if humanOutput {
		outputHuman("Added %d clauses from %d file(s); index now holds %d clauses\n",
			result.ClausesAdded, len(args), result.TotalClauses)
		return nil
	}
	return outputJSON(result)
}
