// Package storage keeps an ephemeral SQLite cache of embedding
// metadata. The index artifacts are the source of truth; this cache
// only records which clause texts were embedded with which model, so
// status checks can detect a stale index without re-embedding.
package storage

import (
	"crypto/sha256"
	"database/sql"
	"fmt"
	"io"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// EmbeddingMetadata records one embedded clause.
type EmbeddingMetadata struct {
	ClauseID  string
	ModelName string
	IndexedAt int64 // Unix seconds
	TextHash  string
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS embedding_metadata (
			clause_id TEXT PRIMARY KEY,
			model_name TEXT NOT NULL,
			indexed_at INTEGER NOT NULL,
			text_hash TEXT NOT NULL
		);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveEmbeddingMetadata saves or updates metadata for a clause.
func (d *DB) SaveEmbeddingMetadata(meta EmbeddingMetadata) error {
	_, err := d.db.Exec(`
		INSERT OR REPLACE INTO embedding_metadata (clause_id, model_name, indexed_at, text_hash)
		VALUES (?, ?, ?, ?)`,
		meta.ClauseID, meta.ModelName, meta.IndexedAt, meta.TextHash)
	if err != nil {
		return fmt.Errorf("saving embedding metadata: %w", err)
	}
	return nil
}

// GetEmbeddingMetadata retrieves metadata for a clause.
// Returns nil (no error) when the clause has no metadata.
func (d *DB) GetEmbeddingMetadata(clauseID string) (*EmbeddingMetadata, error) {
	var meta EmbeddingMetadata
	err := d.db.QueryRow(`
		SELECT clause_id, model_name, indexed_at, text_hash
		FROM embedding_metadata WHERE clause_id = ?`, clauseID).
		Scan(&meta.ClauseID, &meta.ModelName, &meta.IndexedAt, &meta.TextHash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying embedding metadata: %w", err)
	}
	return &meta, nil
}

// ClearEmbeddingMetadata removes all metadata rows.
func (d *DB) ClearEmbeddingMetadata() error {
	_, err := d.db.Exec(`DELETE FROM embedding_metadata`)
	if err != nil {
		return fmt.Errorf("clearing embedding metadata: %w", err)
	}
	return nil
}

// CountEmbeddingMetadata returns the number of recorded clauses.
func (d *DB) CountEmbeddingMetadata() (int, error) {
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM embedding_metadata`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting embedding metadata: %w", err)
	}
	return count, nil
}

// Models returns the distinct model names present in the cache.
func (d *DB) Models() ([]string, error) {
	rows, err := d.db.Query(`SELECT DISTINCT model_name FROM embedding_metadata ORDER BY model_name`)
	if err != nil {
		return nil, fmt.Errorf("querying models: %w", err)
	}
	defer rows.Close()

	var models []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scanning model name: %w", err)
		}
		models = append(models, m)
	}
	return models, rows.Err()
}

// HashText computes the SHA256 hash of a clause text for staleness
// comparison.
func HashText(text string) string {
	h := sha256.New()
	io.WriteString(h, strings.TrimSpace(text))
	return fmt.Sprintf("%x", h.Sum(nil))
}
