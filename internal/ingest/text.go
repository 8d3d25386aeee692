package ingest

import (
	"os"
	"regexp"
	"strings"
)

// blankLineRE splits text on runs of blank lines.
var blankLineRE = regexp.MustCompile(`\n\s*\n`)

// TextLoader extracts one fragment per blank-line-separated paragraph
// from plain-text and Markdown files.
type TextLoader struct{}

// Load implements Loader.
func (TextLoader) Load(path string) ([]Fragment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	var frags []Fragment
	for _, para := range blankLineRE.Split(text, -1) {
		frags = append(frags, Fragment{Text: para})
	}
	return frags, nil
}
