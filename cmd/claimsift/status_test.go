package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/claimsift/claimsift/internal/clause"
	"github.com/claimsift/claimsift/internal/storage"
)

func TestCountStaleClauses(t *testing.T) {
	db, err := storage.OpenDB(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	fresh := clause.Clause{ID: "policy.txt:0", Text: "Knee surgery is covered."}
	edited := clause.Clause{ID: "policy.txt:1", Text: "Hip replacement is covered up to Rs 50,000."}
	uncached := clause.Clause{ID: "policy.txt:2", Text: "Cataract surgery requires prior authorization."}

	now := time.Now().Unix()
	if err := db.SaveEmbeddingMetadata(storage.EmbeddingMetadata{
		ClauseID:  fresh.ID,
		ModelName: "all-minilm:l6-v2",
		IndexedAt: now,
		TextHash:  storage.HashText(fresh.Text),
	}); err != nil {
		t.Fatalf("SaveEmbeddingMetadata failed: %v", err)
	}
	// Hash recorded before the clause text changed.
	if err := db.SaveEmbeddingMetadata(storage.EmbeddingMetadata{
		ClauseID:  edited.ID,
		ModelName: "all-minilm:l6-v2",
		IndexedAt: now,
		TextHash:  storage.HashText("Hip replacement is covered up to Rs 40,000."),
	}); err != nil {
		t.Fatalf("SaveEmbeddingMetadata failed: %v", err)
	}

	tests := []struct {
		name    string
		clauses []clause.Clause
		want    int
	}{
		{
			name:    "all fresh",
			clauses: []clause.Clause{fresh},
			want:    0,
		},
		{
			name:    "changed text is stale",
			clauses: []clause.Clause{fresh, edited},
			want:    1,
		},
		{
			name:    "missing metadata is stale",
			clauses: []clause.Clause{fresh, edited, uncached},
			want:    2,
		},
		{
			name:    "no clauses",
			clauses: nil,
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countStaleClauses(db, tt.clauses); got != tt.want {
				t.Errorf("countStaleClauses = %d, want %d", got, tt.want)
			}
		})
	}
}
