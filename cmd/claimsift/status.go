package main

import (
	"context"
	"strings"

	"github.com/claimsift/claimsift/internal/clause"
	"github.com/claimsift/claimsift/internal/config"
	"github.com/claimsift/claimsift/internal/index"
	"github.com/claimsift/claimsift/internal/retriever"
	"github.com/claimsift/claimsift/internal/storage"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

// IndexStatus describes the state of the repository's index.
type IndexStatus struct {
	Root         string   `json:"root"`
	IndexExists  bool     `json:"index_exists"`
	Clauses      int      `json:"clauses"`
	Dimensions   int      `json:"dimensions,omitempty"`
	Model        string   `json:"model"`
	OllamaOnline bool     `json:"ollama_online"`
	CachedModels []string `json:"cached_models,omitempty"`
	CachedCount  int      `json:"cached_count"`
	StaleClauses int      `json:"stale_clauses"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show repository and index status",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	root := mustFindRepository()
	cfg := mustLoadConfig(root)

	provider := newProvider(cfg)
	status := IndexStatus{
		Root:  root,
		Model: provider.ModelName(),
	}
	status.OllamaOnline = provider.IsAvailable(ctx) == nil

	prefix := cfg.IndexPrefix
	if prefix == "" {
		prefix = config.IndexPrefix(root)
	}

	var indexed []clause.Clause
	if index.Exists(prefix) {
		status.IndexExists = true
		r := retriever.New(provider)
		if err := r.Load(prefix); err != nil {
			exitWithError(ExitCorruptIndex, "loading index: %v", err)
		}
		status.Clauses = r.Len()
		status.Dimensions = r.Dimensions()
		indexed = r.Clauses()
	}

	if db, err := storage.OpenDB(config.DBPath(root)); err == nil {
		if n, err := db.CountEmbeddingMetadata(); err == nil {
			status.CachedCount = n
		}
		if models, err := db.Models(); err == nil {
			status.CachedModels = models
		}
		status.StaleClauses = countStaleClauses(db, indexed)
		db.Close()
	}

	if humanOutput {
		printStatusHuman(status)
		return nil
	}
	return outputJSON(status)
}

// countStaleClauses counts indexed clauses whose cached metadata is
// missing or whose text hash no longer matches the clause text, i.e.
// clauses whose embeddings predate an edit to the source document.
func countStaleClauses(db *storage.DB, clauses []clause.Clause) int {
	stale := 0
	for _, c := range clauses {
		meta, err := db.GetEmbeddingMetadata(c.ID)
		if err != nil || meta == nil || meta.TextHash != storage.HashText(c.Text) {
			stale++
		}
	}
	return stale
}

func printStatusHuman(s IndexStatus) {
	outputHuman("Repository: %s\n", s.Root)
	outputHuman("Model:      %s\n", s.Model)
	if s.OllamaOnline {
		outputHuman("Ollama:     online\n")
	} else {
		outputHuman("Ollama:     offline\n")
	}
	if s.IndexExists {
		outputHuman("Index:      %d clauses, %d dimensions\n", s.Clauses, s.Dimensions)
	} else {
		outputHuman("Index:      not built (run 'claimsift ingest')\n")
	}
	outputHuman("Metadata:   %d cached embeddings", s.CachedCount)
	if len(s.CachedModels) > 0 {
		outputHuman(" (%s)", strings.Join(s.CachedModels, ", "))
	}
	outputHuman("\n")
	if s.StaleClauses > 0 {
		outputHuman("Stale:      %d clauses changed since indexing (run 'claimsift ingest')\n", s.StaleClauses)
	}
}
