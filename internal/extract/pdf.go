package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/metcalfc/rsvp/internal/domain"
)

// PDFFormat reads the text layer of PDF files. Outline entries carry no
// resolvable word offsets, so PDFs have no chapters.
type PDFFormat struct{}

func init() {
	Register(&PDFFormat{})
}

func (f *PDFFormat) Name() string         { return "PDF" }
func (f *PDFFormat) Extensions() []string { return []string{".pdf"} }

func (f *PDFFormat) Extract(filename string) (content domain.Content, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			content, err = domain.Content{}, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	file, r, err := pdf.Open(filename)
	if err != nil {
		return domain.Content{}, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()

	var out wordCounter
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		out.write(text)
	}
	if out.words == 0 {
		plain, err := r.GetPlainText()
		if err != nil {
			return domain.Content{}, err
		}
		var sb strings.Builder
		if _, err := io.Copy(&sb, plain); err != nil {
			return domain.Content{}, err
		}
		out.write(sb.String())
	}
	return domain.Content{Text: out.String()}, nil
}
