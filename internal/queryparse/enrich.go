package queryparse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	// DefaultEnrichBaseURL is the default OpenAI-compatible API base.
	DefaultEnrichBaseURL = "https://api.openai.com/v1"

	// DefaultEnrichModel is the default chat model for enrichment.
	DefaultEnrichModel = "gpt-4o-mini"

	// EnrichAPIKeyEnv names the environment variable holding the API key.
	EnrichAPIKeyEnv = "OPENAI_API_KEY"

	// defaultEnrichTimeout bounds a single enrichment round trip.
	defaultEnrichTimeout = 20 * time.Second
)

const enrichSystemPrompt = `You are an expert medical insurance NLP assistant. ` +
	`Extract age, gender (M/F), procedure, location, and policy duration in months ` +
	`from the user's query. Respond ONLY as JSON with keys: ` +
	`age (int), gender ("M"/"F"), procedure (string), location (string), policy_age_months (int). ` +
	`Omit keys you cannot determine.`

// LLMEnricher fills missing query fields via an OpenAI-compatible chat
// completion API. It is strictly optional: the parser treats any
// failure here as non-fatal.
type LLMEnricher struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// LLMEnricherOption configures an LLMEnricher.
type LLMEnricherOption func(*LLMEnricher)

// WithEnrichBaseURL sets the API base URL.
func WithEnrichBaseURL(url string) LLMEnricherOption {
	return func(e *LLMEnricher) {
		e.baseURL = url
	}
}

// WithEnrichModel sets the chat model.
func WithEnrichModel(model string) LLMEnricherOption {
	return func(e *LLMEnricher) {
		e.model = model
	}
}

// NewLLMEnricher creates an enricher reading its API key from
// OPENAI_API_KEY. Returns nil (no enricher) if the key is unset, so
// callers can pass the result straight to NewParser.
func NewLLMEnricher(opts ...LLMEnricherOption) *LLMEnricher {
	key := os.Getenv(EnrichAPIKeyEnv)
	if key == "" {
		return nil
	}

	e := &LLMEnricher{
		baseURL: DefaultEnrichBaseURL,
		apiKey:  key,
		model:   DefaultEnrichModel,
		client:  &http.Client{Timeout: defaultEnrichTimeout},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich asks the chat model for the missing fields and merges them
// over the regex baseline. Fields already present in the baseline win.
func (e *LLMEnricher) Enrich(ctx context.Context, raw string, baseline Query) (Query, error) {
	reqBody := chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: enrichSystemPrompt},
			{Role: "user", Content: raw},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return baseline, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return baseline, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return baseline, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return baseline, fmt.Errorf("enrichment API returned status %d: %s", resp.StatusCode, msg)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return baseline, fmt.Errorf("decoding response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return baseline, fmt.Errorf("enrichment API returned no choices")
	}

	var fields enrichedFields
	if err := json.Unmarshal([]byte(cr.Choices[0].Message.Content), &fields); err != nil {
		return baseline, fmt.Errorf("parsing enriched fields: %w", err)
	}

	return mergeFields(baseline, fields), nil
}

// mergeFields fills only the gaps: the regex baseline is trusted over
// the model for every field it already extracted.
func mergeFields(q Query, f enrichedFields) Query {
	if q.Age == nil && f.Age != nil {
		q.Age = f.Age
	}
	if q.Gender == "" && f.Gender != "" {
		q.Gender = normalizeGender(f.Gender)
	}
	if q.Procedure == "" && f.Procedure != "" {
		q.Procedure = f.Procedure
	}
	if q.Location == "" && f.Location != "" {
		q.Location = f.Location
	}
	if q.PolicyAgeMonths == nil && f.PolicyAgeMonths != nil {
		q.PolicyAgeMonths = f.PolicyAgeMonths
	}
	return q
}

// enrichedFields is the JSON shape the model is instructed to return.
type enrichedFields struct {
	Age             *int   `json:"age"`
	Gender          string `json:"gender"`
	Procedure       string `json:"procedure"`
	Location        string `json:"location"`
	PolicyAgeMonths *int   `json:"policy_age_months"`
}

// chatRequest is the request body for the chat completions API.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// chatMessage is one message in a chat completion request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the subset of the chat completions response we read.
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
