package main

import (
	"context"
	"os"

	"github.com/claimsift/claimsift/internal/config"
	"github.com/claimsift/claimsift/internal/embedding"
	"github.com/claimsift/claimsift/internal/queryparse"
	"github.com/claimsift/claimsift/internal/retriever"
)

// mustFindRepository locates the claimsift repository root, exiting
// with an error if not inside one. CLAIMSIFT_ROOT overrides discovery.
func mustFindRepository() string {
	if root := os.Getenv("CLAIMSIFT_ROOT"); root != "" {
		return root
	}

	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	root, err := config.FindRepository(cwd)
	if err != nil {
		exitWithError(ExitConfigError, "%v\n\nRun 'claimsift init' to create a repository.", err)
	}
	return root
}

// mustLoadConfig loads the repository config, exiting on failure.
func mustLoadConfig(root string) *config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// newProvider builds an Ollama embedding provider from config.
func newProvider(cfg *config.Config) *embedding.OllamaProvider {
	var opts []embedding.OllamaOption
	if cfg.OllamaURL != "" {
		opts = append(opts, embedding.WithBaseURL(cfg.OllamaURL))
	}
	if cfg.Model != "" {
		opts = append(opts, embedding.WithModel(cfg.Model))
	}
	return embedding.NewOllamaProvider(opts...)
}

// mustCheckOllama verifies Ollama and the embedding model are available.
func mustCheckOllama(ctx context.Context, provider *embedding.OllamaProvider) {
	if err := provider.IsAvailable(ctx); err != nil {
		exitWithError(ExitOllamaError, "Ollama is not running\n\nStart Ollama with 'ollama serve' or install from https://ollama.ai")
	}
	hasModel, err := provider.HasModel(ctx)
	if err != nil {
		exitWithError(ExitError, "checking model availability: %v", err)
	}
	if !hasModel {
		exitWithError(ExitModelNotFound, "Embedding model '%s' not found\n\nRun 'ollama pull %s' to download it.", provider.ModelName(), provider.ModelName())
	}
}

// mustLoadRetriever builds a retriever and restores the repository's
// persisted index into it.
func mustLoadRetriever(root string, cfg *config.Config) *retriever.Retriever {
	prefix := cfg.IndexPrefix
	if prefix == "" {
		prefix = config.IndexPrefix(root)
	}

	r := retriever.New(newProvider(cfg))
	if err := r.Load(prefix); err != nil {
		exitWithError(ExitCorruptIndex, "loading index: %v\n\nRun 'claimsift ingest' to build the index.", err)
	}
	return r
}

// newParser builds the query parser with optional LLM enrichment
// when OPENAI_API_KEY is configured.
func newParser() *queryparse.Parser {
	enricher := queryparse.NewLLMEnricher()
	if enricher == nil {
		return queryparse.NewParser(nil)
	}
	return queryparse.NewParser(enricher)
}
