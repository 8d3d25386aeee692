package main

import (
	"context"
	"strings"

	"github.com/claimsift/claimsift/internal/clause"
	"github.com/claimsift/claimsift/internal/decision"
	"github.com/claimsift/claimsift/internal/index"
	"github.com/claimsift/claimsift/internal/queryparse"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	askTopK    int
	askClauses bool
)

func init() {
	askCmd.Flags().IntVar(&askTopK, "top-k", 0, "Number of clauses to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askClauses, "show-clauses", false, "Include retrieved clauses and scores in the output")
	rootCmd.AddCommand(askCmd)
}

// AskResult is the decision record with the retrieval context that
// produced it. The record is embedded so its fields (decision, amount,
// justification, clauses) stay at the top level of the JSON response,
// matching what /api/ask clients read.
type AskResult struct {
	decision.Record

	Query  queryparse.Query `json:"query"`
	Scored []ScoredClause   `json:"retrieved,omitempty"`
}

// ScoredClause is a retrieved clause with its similarity score.
type ScoredClause struct {
	ID     string  `json:"id"`
	Text   string  `json:"text"`
	Source string  `json:"source,omitempty"`
	Score  float32 `json:"score"`
}

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Answer a claim query against the indexed corpus",
	Long: `Parse a natural-language claim query, retrieve the most similar policy
clauses, and evaluate the decision rules against them.

Example:
  claimsift ask "46-year-old male, knee surgery in Pune, 3-month policy"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	root := mustFindRepository()
	cfg := mustLoadConfig(root)

	queryText := strings.Join(args, " ")

	provider := newProvider(cfg)
	mustCheckOllama(ctx, provider)
	r := mustLoadRetriever(root, cfg)

	// .env may carry the enrichment API key.
	_ = godotenv.Load()
	parser := newParser()
	parsed := parser.Parse(ctx, queryText)

	topK := askTopK
	if topK <= 0 {
		topK = cfg.TopK
	}
	scored, err := r.Retrieve(ctx, queryText, topK)
	if err != nil {
		exitWithError(ExitError, "retrieving clauses: %v", err)
	}
	scored = filterByThreshold(scored, cfg.Threshold)

	retrieved := extractClauses(scored)
	record := decision.Evaluate(parsed, retrieved)

	result := AskResult{Record: record, Query: parsed}
	if askClauses {
		result.Scored = make([]ScoredClause, len(scored))
		for i, s := range scored {
			result.Scored[i] = ScoredClause{
				ID:     s.Clause.ID,
				Text:   s.Clause.Text,
				Source: s.Clause.Source,
				Score:  s.Score,
			}
		}
	}

	if humanOutput {
		printAskHuman(result)
		return nil
	}
	return outputJSON(result)
}

// extractClauses strips scores, keeping retrieval order.
func extractClauses(scored []index.Scored) []clause.Clause {
	clauses := make([]clause.Clause, len(scored))
	for i, s := range scored {
		clauses[i] = s.Clause
	}
	return clauses
}

// filterByThreshold drops results scoring below the configured
// similarity floor. A zero threshold keeps everything.
func filterByThreshold(scored []index.Scored, threshold float32) []index.Scored {
	if threshold <= 0 {
		return scored
	}
	kept := scored[:0]
	for _, s := range scored {
		if s.Score >= threshold {
			kept = append(kept, s)
		}
	}
	return kept
}

func printAskHuman(result AskResult) {
	outputHuman("Decision: %s\n", result.Decision)
	if result.Amount != nil {
		outputHuman("Amount:   Rs %.2f\n", *result.Amount)
	}
	outputHuman("%s\n", result.Justification)
	if len(result.Scored) > 0 {
		outputHuman("\nRetrieved clauses:\n")
		for _, s := range result.Scored {
			outputHuman("  [%.3f] %s: %s\n", s.Score, s.ID, truncateString(s.Text, 80))
		}
	}
}
