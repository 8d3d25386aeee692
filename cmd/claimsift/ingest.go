package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/claimsift/claimsift/internal/clause"
	"github.com/claimsift/claimsift/internal/config"
	"github.com/claimsift/claimsift/internal/ingest"
	"github.com/claimsift/claimsift/internal/retriever"
	"github.com/claimsift/claimsift/internal/storage"
	"github.com/spf13/cobra"
)

var (
	ingestDocs  string
	ingestIndex string
)

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestDocs, "docs", "", "Directory with documents (default: docs_dir from config)")
	ingestCmd.Flags().StringVar(&ingestIndex, "index", "", "Path prefix for the index artifacts (default: .claimsift/cache/store)")
}

// IngestResult is the response for the ingest command.
type IngestResult struct {
	Status          string  `json:"status"`
	ClausesIndexed  int     `json:"clauses_indexed"`
	Dimensions      int     `json:"dimensions"`
	Model           string  `json:"model"`
	IndexPrefix     string  `json:"index_prefix"`
	DurationSeconds float64 `json:"duration_seconds"`
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build the clause index from a document directory",
	Long: `Load every supported document (.pdf, .docx, .txt, .md, .eml) under the
docs directory, split them into clauses, embed the clauses, and build
a fresh vector index. Any existing index is replaced.

Requires Ollama to be running with the embedding model available.
Run 'ollama pull all-minilm:l6-v2' to download the default model.`,
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	root := mustFindRepository()
	cfg := mustLoadConfig(root)

	docsDir := ingestDocs
	if docsDir == "" {
		docsDir = config.ExpandPath(cfg.DocsDir)
		if !filepath.IsAbs(docsDir) {
			docsDir = filepath.Join(root, docsDir)
		}
	}
	if info, err := os.Stat(docsDir); err != nil || !info.IsDir() {
		exitWithError(ExitConfigError, "docs directory not found: %s", docsDir)
	}

	prefix := ingestIndex
	if prefix == "" {
		prefix = cfg.IndexPrefix
	}
	if prefix == "" {
		prefix = config.IndexPrefix(root)
	}

	clauses, err := ingest.Dir(docsDir)
	if err != nil {
		exitWithError(ExitError, "loading documents: %v", err)
	}
	if len(clauses) == 0 {
		exitWithError(ExitNoDocuments, "no supported documents found in %s", docsDir)
	}

	provider := newProvider(cfg)
	mustCheckOllama(ctx, provider)

	start := time.Now()
	r := retriever.New(provider)
	if err := r.Fit(ctx, clauses); err != nil {
		exitWithError(ExitError, "building index: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(prefix), 0755); err != nil {
		exitWithError(ExitError, "creating index directory: %v", err)
	}
	if err := r.Save(prefix); err != nil {
		exitWithError(ExitError, "saving index: %v", err)
	}

	// Corpus snapshot, git-friendly.
	if err := clause.WriteAll(config.CorpusPath(root), clauses); err != nil {
		exitWithError(ExitError, "writing corpus file: %v", err)
	}

	recordMetadata(root, provider.ModelName(), clauses, true)

	result := IngestResult{
		Status:          "indexed",
		ClausesIndexed:  len(clauses),
		Dimensions:      r.Dimensions(),
		Model:           provider.ModelName(),
		IndexPrefix:     prefix,
		DurationSeconds: time.Since(start).Seconds(),
	}

	if humanOutput {
		outputHuman("Indexed %d clauses (%d dimensions, model %s) in %.1fs\n",
			result.ClausesIndexed, result.Dimensions, result.Model, result.DurationSeconds)
		outputHuman("Index saved to %s{%s,%s}\n", prefix, ".vectors", ".meta")
		return nil
	}
	return outputJSON(result)
}

// recordMetadata writes embedding metadata for the given clauses to
// the cache database. Failures are reported but not fatal: the cache
// is advisory, the index artifacts are the source of truth.
func recordMetadata(root, model string, clauses []clause.Clause, clearFirst bool) {
	db, err := storage.OpenDB(config.DBPath(root))
	if err != nil {
		outputHuman("warning: opening metadata cache: %v\n", err)
		return
	}
	defer db.Close()

	if clearFirst {
		if err := db.ClearEmbeddingMetadata(); err != nil {
			outputHuman("warning: clearing metadata cache: %v\n", err)
			return
		}
	}

	now := time.Now().Unix()
	for _, c := range clauses {
		err := db.SaveEmbeddingMetadata(storage.EmbeddingMetadata{
			ClauseID:  c.ID,
			ModelName: model,
			IndexedAt: now,
			TextHash:  storage.HashText(c.Text),
		})
		if err != nil {
			outputHuman("warning: caching metadata for %s: %v\n", c.ID, err)
			return
		}
	}
}
