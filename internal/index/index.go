// Package index implements an exact nearest-neighbor vector index over
// clauses. Vectors and clauses are held in parallel append-only slices:
// the i-th vector always corresponds to the i-th clause, and positions
// are never reused or reordered. That alignment is the core invariant
// and survives save/load round-trips.
package index

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/claimsift/claimsift/internal/clause"
)

// Errors returned by index operations.
var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrIndexEmpty        = errors.New("index is empty")
	ErrCorruptIndex      = errors.New("corrupt index")
)

// Scored pairs a clause with its similarity to a query.
type Scored struct {
	Clause clause.Clause `json:"clause"`
	Score  float32       `json:"score"`
}

// Index holds normalized embedding vectors and their clauses.
// All stored vectors are unit length, so inner product equals cosine
// similarity. Not safe for concurrent use; callers serialize access.
type Index struct {
	dim     int
	vectors [][]float32
	clauses []clause.Clause
}

// New creates an empty index with a fixed dimensionality.
func New(dim int) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimensionality must be positive, got %d", ErrDimensionMismatch, dim)
	}
	return &Index{dim: dim}, nil
}

// Dimensions returns the fixed vector dimensionality.
func (idx *Index) Dimensions() int {
	return idx.dim
}

// Len returns the number of stored vectors (equal to the number of clauses).
func (idx *Index) Len() int {
	return len(idx.vectors)
}

// Clauses returns the stored clauses in insertion order.
// The returned slice must not be modified.
func (idx *Index) Clauses() []clause.Clause {
	return idx.clauses
}

// VectorAt returns the normalized vector at position i.
// The returned slice must not be modified.
func (idx *Index) VectorAt(i int) []float32 {
	return idx.vectors[i]
}

// Append normalizes the given vectors and appends them, with their
// clauses, in order. Vectors and clauses must have equal length, and
// every vector must match the index dimensionality.
func (idx *Index) Append(vectors [][]float32, clauses []clause.Clause) error {
	if len(vectors) != len(clauses) {
		return fmt.Errorf("vector/clause count mismatch: %d vectors, %d clauses", len(vectors), len(clauses))
	}

	for i, v := range vectors {
		if len(v) != idx.dim {
			return fmt.Errorf("%w: vector %d has %d dimensions, index has %d", ErrDimensionMismatch, i, len(v), idx.dim)
		}
	}

	for i, v := range vectors {
		idx.vectors = append(idx.vectors, normalize(v))
		idx.clauses = append(idx.clauses, clauses[i])
	}

	return nil
}

// Search returns up to k clauses ordered by descending inner-product
// similarity with the normalized query vector. Ties are broken by
// insertion order (earlier position wins). If k exceeds the number of
// stored vectors, all of them are returned.
func (idx *Index) Search(query []float32, k int) ([]Scored, error) {
	if idx.Len() == 0 {
		return nil, ErrIndexEmpty
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", ErrDimensionMismatch, len(query), idx.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	q := normalize(query)

	results := make([]Scored, idx.Len())
	for i, v := range idx.vectors {
		results[i] = Scored{Clause: idx.clauses[i], Score: dot(q, v)}
	}

	// Stable sort over insertion order breaks score ties toward the
	// earlier position.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// normalize returns a unit-length copy of v. A zero vector is returned
// unchanged (it has no direction to preserve).
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	norm := math.Sqrt(sum)
	if norm == 0 {
		copy(out, v)
		return out
	}
	inv := float32(1 / norm)
	for i, x := range v {
		out[i] = x * inv
	}
	return out
}

// dot computes the inner product of two equal-length vectors.
func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
