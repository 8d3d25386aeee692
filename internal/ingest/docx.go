package ingest

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// DocxLoader extracts one fragment per non-empty paragraph from a
// .docx file. A .docx is a zip archive; paragraph text lives in
// word/document.xml as <w:p> elements containing <w:t> runs.
type DocxLoader struct{}

// Load implements Loader.
func (DocxLoader) Load(path string) ([]Fragment, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var doc io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc, err = f.Open()
			if err != nil {
				return nil, err
			}
			break
		}
	}
	if doc == nil {
		return nil, fmt.Errorf("no word/document.xml in %s", path)
	}
	defer doc.Close()

	paragraphs, err := extractParagraphs(doc)
	if err != nil {
		return nil, err
	}

	var frags []Fragment
	for _, p := range paragraphs {
		frags = append(frags, Fragment{Text: p})
	}
	return frags, nil
}

// extractParagraphs streams the document XML, collecting the text runs
// of each paragraph.
func extractParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var paragraphs []string
	var current strings.Builder
	inParagraph := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
			case "t":
				if inParagraph {
					var text string
					if err := dec.DecodeElement(&text, &t); err != nil {
						return nil, err
					}
					current.WriteString(text)
				}
			}
		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				if s := strings.TrimSpace(current.String()); s != "" {
					paragraphs = append(paragraphs, s)
				}
			}
		}
	}

	return paragraphs, nil
}
