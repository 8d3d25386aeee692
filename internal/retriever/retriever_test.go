package retriever

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/claimsift/claimsift/internal/clause"
	"github.com/claimsift/claimsift/internal/embedding"
	"github.com/claimsift/claimsift/internal/index"
)

// fakeProvider embeds text deterministically by counting topic words,
// so similar texts land near each other without a real model.
type fakeProvider struct {
	failing bool
}

var topics = []string{"knee", "hip", "claim"}

func (f *fakeProvider) Embed(ctx context.Context, text string) (embedding.Embedding, error) {
	embs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return embedding.Embedding{}, err
	}
	return embs[0], nil
}

func (f *fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([]embedding.Embedding, error) {
	if f.failing {
		return nil, errors.New("model unavailable")
	}
	embs := make([]embedding.Embedding, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		v := make([]float32, len(topics)+1)
		for j, topic := range topics {
			v[j] = float32(strings.Count(lower, topic))
		}
		v[len(topics)] = 0.1 // keep vectors nonzero
		embs[i] = embedding.Embedding{Vector: v}
	}
	return embs, nil
}

func (f *fakeProvider) ModelName() string { return "fake-model" }
func (f *fakeProvider) Dimensions() int   { return len(topics) + 1 }

func testClauses() []clause.Clause {
	return []clause.Clause{
		{ID: "pol.pdf:0", Text: "Knee surgery is covered up to Rs 100000.", Source: "pol.pdf"},
		{ID: "pol.pdf:1", Text: "Hip replacement not covered.", Source: "pol.pdf"},
		{ID: "pol.pdf:2", Text: "Claims must be filed within 30 days.", Source: "pol.pdf"},
	}
}

func TestFitAndRetrieve(t *testing.T) {
	ctx := context.Background()
	r := New(&fakeProvider{})

	if err := r.Fit(ctx, testClauses()); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if r.Len() != 3 {
		t.Fatalf("expected 3 indexed clauses, got %d", r.Len())
	}

	results, err := r.Retrieve(ctx, "knee surgery", 2)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Clause.ID != "pol.pdf:0" {
		t.Errorf("expected knee clause first, got '%s'", results[0].Clause.ID)
	}
}

func TestFitReplacesIndex(t *testing.T) {
	ctx := context.Background()
	r := New(&fakeProvider{})

	if err := r.Fit(ctx, testClauses()); err != nil {
		t.Fatal(err)
	}
	replacement := []clause.Clause{
		{ID: "new.pdf:0", Text: "Knee brace rental is covered.", Source: "new.pdf"},
	}
	if err := r.Fit(ctx, replacement); err != nil {
		t.Fatal(err)
	}

	if r.Len() != 1 {
		t.Errorf("Fit must fully replace the index: expected 1 clause, got %d", r.Len())
	}
	if r.Clauses()[0].ID != "new.pdf:0" {
		t.Errorf("unexpected clause after refit: %s", r.Clauses()[0].ID)
	}
}

func TestAddClauses(t *testing.T) {
	ctx := context.Background()

	t.Run("appends to existing index", func(t *testing.T) {
		r := New(&fakeProvider{})
		if err := r.Fit(ctx, testClauses()[:2]); err != nil {
			t.Fatal(err)
		}
		if err := r.AddClauses(ctx, testClauses()[2:]); err != nil {
			t.Fatalf("AddClauses failed: %v", err)
		}
		if r.Len() != 3 {
			t.Errorf("expected 3 clauses, got %d", r.Len())
		}
		// Existing clauses untouched, new ones appended after.
		ids := []string{"pol.pdf:0", "pol.pdf:1", "pol.pdf:2"}
		for i, want := range ids {
			if r.Clauses()[i].ID != want {
				t.Errorf("position %d: expected '%s', got '%s'", i, want, r.Clauses()[i].ID)
			}
		}
	})

	t.Run("creates index when none exists", func(t *testing.T) {
		r := New(&fakeProvider{})
		if err := r.AddClauses(ctx, testClauses()); err != nil {
			t.Fatalf("AddClauses failed: %v", err)
		}
		if r.Len() != 3 {
			t.Errorf("expected 3 clauses, got %d", r.Len())
		}
	})

	t.Run("empty slice is a no-op", func(t *testing.T) {
		r := New(&fakeProvider{})
		if err := r.AddClauses(ctx, nil); err != nil {
			t.Fatalf("AddClauses(nil) failed: %v", err)
		}
		if r.Ready() {
			t.Error("no-op AddClauses must not create an index")
		}
	})
}

func TestIncrementalEquivalence(t *testing.T) {
	ctx := context.Background()
	all := testClauses()

	fitted := New(&fakeProvider{})
	if err := fitted.Fit(ctx, all); err != nil {
		t.Fatal(err)
	}

	incremental := New(&fakeProvider{})
	if err := incremental.Fit(ctx, all[:1]); err != nil {
		t.Fatal(err)
	}
	if err := incremental.AddClauses(ctx, all[1:]); err != nil {
		t.Fatal(err)
	}

	if fitted.Len() != incremental.Len() {
		t.Fatalf("lengths differ: %d vs %d", fitted.Len(), incremental.Len())
	}

	for _, query := range []string{"knee surgery", "hip replacement", "filing a claim"} {
		a, err := fitted.Retrieve(ctx, query, 3)
		if err != nil {
			t.Fatal(err)
		}
		b, err := incremental.Retrieve(ctx, query, 3)
		if err != nil {
			t.Fatal(err)
		}
		for i := range a {
			if a[i].Clause.ID != b[i].Clause.ID {
				t.Errorf("query %q position %d: '%s' != '%s'", query, i, a[i].Clause.ID, b[i].Clause.ID)
			}
		}
	}
}

func TestRetrieveNotReady(t *testing.T) {
	r := New(&fakeProvider{})
	if _, err := r.Retrieve(context.Background(), "anything", 3); !errors.Is(err, ErrIndexNotReady) {
		t.Errorf("expected ErrIndexNotReady, got %v", err)
	}
}

func TestSaveNotReady(t *testing.T) {
	r := New(&fakeProvider{})
	prefix := filepath.Join(t.TempDir(), "store")
	if err := r.Save(prefix); !errors.Is(err, ErrIndexNotReady) {
		t.Errorf("expected ErrIndexNotReady, got %v", err)
	}
}

func TestSaveLoadRetrieveEquivalence(t *testing.T) {
	ctx := context.Background()
	prefix := filepath.Join(t.TempDir(), "store")

	r := New(&fakeProvider{})
	if err := r.Fit(ctx, testClauses()); err != nil {
		t.Fatal(err)
	}
	before, err := r.Retrieve(ctx, "knee surgery", 3)
	if err != nil {
		t.Fatal(err)
	}

	if err := r.Save(prefix); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	restored := New(&fakeProvider{})
	if err := restored.Load(prefix); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	after, err := restored.Retrieve(ctx, "knee surgery", 3)
	if err != nil {
		t.Fatal(err)
	}

	if len(before) != len(after) {
		t.Fatalf("result counts differ: %d vs %d", len(before), len(after))
	}
	for i := range before {
		if before[i].Clause.ID != after[i].Clause.ID {
			t.Errorf("position %d: '%s' != '%s'", i, before[i].Clause.ID, after[i].Clause.ID)
		}
	}
}

func TestLoadCorrupt(t *testing.T) {
	r := New(&fakeProvider{})
	err := r.Load(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, index.ErrCorruptIndex) {
		t.Errorf("expected ErrCorruptIndex, got %v", err)
	}
}

func TestEmbeddingFailurePropagates(t *testing.T) {
	ctx := context.Background()
	r := New(&fakeProvider{failing: true})

	if err := r.Fit(ctx, testClauses()); err == nil {
		t.Error("Fit must propagate embedding failure")
	}
	if r.Ready() {
		t.Error("failed Fit must not leave a partial index")
	}
}

func TestIndexedVectorsAreNormalized(t *testing.T) {
	ctx := context.Background()
	r := New(&fakeProvider{})
	if err := r.Fit(ctx, testClauses()); err != nil {
		t.Fatal(err)
	}

	results, err := r.Retrieve(ctx, "knee", r.Len())
	if err != nil {
		t.Fatal(err)
	}
	// With both sides unit length, every score must lie in [-1, 1].
	for _, res := range results {
		if math.Abs(float64(res.Score)) > 1+1e-5 {
			t.Errorf("score %f outside [-1, 1]: vectors not normalized", res.Score)
		}
	}
}

func TestConcurrentRetrieves(t *testing.T) {
	ctx := context.Background()
	r := New(&fakeProvider{})
	if err := r.Fit(ctx, testClauses()); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := r.Retrieve(ctx, fmt.Sprintf("query %d about knees", i), 2); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent Retrieve failed: %v", err)
	}
}
