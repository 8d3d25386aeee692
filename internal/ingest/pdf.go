package ingest

import (
	"strconv"

	"github.com/ledongthuc/pdf"
)

// PDFLoader extracts one fragment per PDF page. Blank pages are
// dropped in File, which skips empty fragments.
type PDFLoader struct{}

// Load implements Loader.
func (PDFLoader) Load(path string) ([]Fragment, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var frags []Fragment
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the whole
			// document.
			continue
		}

		frags = append(frags, Fragment{
			Text: text,
			Meta: map[string]string{"page": strconv.Itoa(i)},
		})
	}

	return frags, nil
}
