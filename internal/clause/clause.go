// Package clause defines the retrievable unit of source text.
package clause

import "fmt"

// Clause is one retrievable fragment of a source document.
// Clauses are immutable once created: ingestion constructs them and
// every later stage only reads them.
type Clause struct {
	// ID is deterministic within a corpus: "<file-base>:<seq>", so
	// re-ingesting an unchanged file reproduces identical IDs.
	ID string `json:"id"`

	// Text is the exact extracted content of one chunk (a PDF page,
	// a paragraph, or an email body). Never empty.
	Text string `json:"text"`

	// Source is the original file path or URI, kept for provenance
	// in decision justifications.
	Source string `json:"source"`
}

// NewID builds a deterministic clause ID from a source file base name
// and the chunk's sequence index within that file.
func NewID(base string, seq int) string {
	return fmt.Sprintf("%s:%d", base, seq)
}
