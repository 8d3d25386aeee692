// Package ingest loads documents from disk and splits them into
// clauses. Loaders are selected by file extension through a static
// registry; adding a format means adding a map entry.
package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/claimsift/claimsift/internal/clause"
)

// ErrUnsupportedType is returned by File for extensions with no
// registered loader.
var ErrUnsupportedType = errors.New("unsupported file type")

// Fragment is one extracted chunk of a document before it becomes a
// clause: a PDF page, a paragraph, or an email body.
type Fragment struct {
	Text string
	Meta map[string]string
}

// Loader extracts ordered text fragments from one file.
type Loader interface {
	Load(path string) ([]Fragment, error)
}

// loaders maps a lowercase file extension (without dot) to its loader.
var loaders = map[string]Loader{
	"pdf":  PDFLoader{},
	"txt":  TextLoader{},
	"md":   TextLoader{},
	"eml":  EmailLoader{},
	"docx": DocxLoader{},
}

// LoaderFor returns the loader registered for a path's extension, or
// nil if the extension is unsupported.
func LoaderFor(path string) Loader {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return loaders[ext]
}

// File loads a single file into clauses. Clause IDs are deterministic:
// "<base-name>:<seq>" in fragment order, so re-ingesting an unchanged
// file reproduces identical IDs. Fragments with empty text are
// silently skipped.
func File(path string) ([]clause.Clause, error) {
	loader := LoaderFor(path)
	if loader == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(path))
	}

	frags, err := loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	base := filepath.Base(path)
	var clauses []clause.Clause
	for _, frag := range frags {
		text := strings.TrimSpace(frag.Text)
		if text == "" {
			continue
		}
		clauses = append(clauses, clause.Clause{
			ID:     clause.NewID(base, len(clauses)),
			Text:   text,
			Source: path,
		})
	}
	return clauses, nil
}

// Dir recursively loads every supported file under root, in walk order.
// Unsupported files are skipped, not errors.
func Dir(root string) ([]clause.Clause, error) {
	var clauses []clause.Clause

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if LoaderFor(path) == nil {
			return nil
		}

		fileClauses, err := File(path)
		if err != nil {
			return err
		}
		clauses = append(clauses, fileClauses...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	return clauses, nil
}
