package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/claimsift/claimsift/internal/decision"
	"github.com/claimsift/claimsift/internal/queryparse"
	"github.com/claimsift/claimsift/internal/retriever"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8199", "Address to listen on")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve claim queries over HTTP",
	Long: `Start an HTTP server answering claim queries against the indexed
corpus. The index is loaded once at startup.

  POST /api/ask   {"query": "...", "top_k": 5}
  GET  /api/health`,
	RunE: runServe,
}

// askRequest is the POST /api/ask request body.
type askRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// server holds the long-lived components behind the HTTP handlers.
type server struct {
	retriever *retriever.Retriever
	parser    *queryparse.Parser
	topK      int
	threshold float32
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	root := mustFindRepository()
	cfg := mustLoadConfig(root)

	provider := newProvider(cfg)
	mustCheckOllama(ctx, provider)
	r := mustLoadRetriever(root, cfg)

	_ = godotenv.Load()
	srv := &server{
		retriever: r,
		parser:    newParser(),
		topK:      cfg.TopK,
		threshold: cfg.Threshold,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/ask", srv.handleAsk)
	mux.HandleFunc("/api/health", srv.handleHealth)

	httpSrv := &http.Server{
		Addr:              serveAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("serving %d clauses on http://%s", r.Len(), serveAddr)
	return httpSrv.ListenAndServe()
}

func (s *server) handleAsk(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var body askRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if body.Query == "" {
		writeJSONError(w, http.StatusBadRequest, "query is required")
		return
	}

	topK := body.TopK
	if topK <= 0 {
		topK = s.topK
	}

	ctx := req.Context()
	parsed := s.parser.Parse(ctx, body.Query)

	scored, err := s.retriever.Retrieve(ctx, body.Query, topK)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "retrieval failed: "+err.Error())
		return
	}
	scored = filterByThreshold(scored, s.threshold)

	record := decision.Evaluate(parsed, extractClauses(scored))
	writeJSON(w, http.StatusOK, AskResult{Record: record, Query: parsed})
}

func (s *server) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"clauses": s.retriever.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writing response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
