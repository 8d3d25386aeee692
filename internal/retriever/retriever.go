// Package retriever orchestrates embedding and the vector index: it
// builds an index from a clause set, extends it incrementally, persists
// and restores it, and answers top-k similarity queries.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/claimsift/claimsift/internal/clause"
	"github.com/claimsift/claimsift/internal/embedding"
	"github.com/claimsift/claimsift/internal/index"
)

// ErrIndexNotReady is returned when retrieval or save is attempted
// before an index has been built or loaded.
var ErrIndexNotReady = errors.New("index not ready: call Fit, AddClauses, or Load first")

// DefaultTopK is the default number of clauses to retrieve.
const DefaultTopK = 5

// Retriever embeds clause text and answers similarity queries against
// a vector index. Mutations take an exclusive lock; retrievals may run
// concurrently with each other but not with a mutation.
type Retriever struct {
	provider embedding.Provider

	mu  sync.RWMutex
	idx *index.Index
}

// New creates a retriever with no index. Build one with Fit or
// AddClauses, or restore one with Load.
func New(provider embedding.Provider) *Retriever {
	return &Retriever{provider: provider}
}

// Fit embeds all clause texts in one batch and replaces any existing
// index with a freshly built one holding exactly these clauses in
// order. This is a full rebuild, not a merge.
func (r *Retriever) Fit(ctx context.Context, clauses []clause.Clause) error {
	vectors, err := r.embedClauses(ctx, clauses)
	if err != nil {
		return err
	}

	idx, err := index.New(r.provider.Dimensions())
	if err != nil {
		return err
	}
	if err := idx.Append(vectors, clauses); err != nil {
		return err
	}

	r.mu.Lock()
	r.idx = idx
	r.mu.Unlock()
	return nil
}

// AddClauses embeds only the new clauses and appends them to the
// existing index, leaving prior vectors and clauses untouched. This is
// the incremental path for documents arriving after the initial build.
// An empty slice is a no-op; if no index exists yet, one is created.
func (r *Retriever) AddClauses(ctx context.Context, newClauses []clause.Clause) error {
	if len(newClauses) == 0 {
		return nil
	}

	vectors, err := r.embedClauses(ctx, newClauses)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.idx == nil {
		idx, err := index.New(r.provider.Dimensions())
		if err != nil {
			return err
		}
		r.idx = idx
	}
	return r.idx.Append(vectors, newClauses)
}

// Retrieve embeds the query text and returns the topK most similar
// clauses with their scores, ordered by descending similarity.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]index.Scored, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	// Embed outside the lock: it is the slow part and touches no
	// index state.
	emb, err := r.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.idx == nil {
		return nil, ErrIndexNotReady
	}
	return r.idx.Search(emb.Vector, topK)
}

// Save persists the index under the two-artifact scheme at the given
// path prefix.
func (r *Retriever) Save(prefix string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.idx == nil {
		return ErrIndexNotReady
	}
	return r.idx.Save(prefix)
}

// Load restores the index from the artifact pair at the given prefix,
// replacing any existing index.
func (r *Retriever) Load(prefix string) error {
	idx, err := index.Load(prefix)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.idx = idx
	r.mu.Unlock()
	return nil
}

// Ready reports whether an index has been built or loaded.
func (r *Retriever) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idx != nil
}

// Len returns the number of indexed clauses, or zero if no index exists.
func (r *Retriever) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.idx == nil {
		return 0
	}
	return r.idx.Len()
}

// Dimensions returns the index dimensionality, or zero if no index exists.
func (r *Retriever) Dimensions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.idx == nil {
		return 0
	}
	return r.idx.Dimensions()
}

// Clauses returns the indexed clauses in insertion order, or nil if no
// index exists. The returned slice must not be modified.
func (r *Retriever) Clauses() []clause.Clause {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.idx == nil {
		return nil
	}
	return r.idx.Clauses()
}

// embedClauses batch-embeds clause texts, returning raw vectors in
// clause order.
func (r *Retriever) embedClauses(ctx context.Context, clauses []clause.Clause) ([][]float32, error) {
	texts := make([]string, len(clauses))
	for i, c := range clauses {
		texts[i] = c.Text
	}

	embs, err := r.provider.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %d clauses: %w", len(clauses), err)
	}
	if len(embs) != len(clauses) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(embs), len(clauses))
	}

	vectors := make([][]float32, len(embs))
	for i, e := range embs {
		vectors[i] = e.Vector
	}
	return vectors, nil
}
