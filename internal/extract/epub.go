package extract

import (
	"bytes"
	"fmt"
	"io"
	"path"

	"github.com/metcalfc/rsvp/internal/domain"
	"github.com/taylorskalyo/goreader/epub"
)

// EPUBFormat reads EPUB books, one chapter per spine document.
type EPUBFormat struct{}

func init() {
	Register(&EPUBFormat{})
}

func (f *EPUBFormat) Name() string         { return "EPUB" }
func (f *EPUBFormat) Extensions() []string { return []string{".epub"} }

// Extract walks the spine in reading order. Chapter titles come from the
// NCX table of contents, then the document's first heading, then
// "Section N".
func (f *EPUBFormat) Extract(filename string) (domain.Content, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return domain.Content{}, fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return domain.Content{}, fmt.Errorf("no rootfiles found in epub")
	}
	book := rc.Rootfiles[0]
	tocByHref := tocTitles(book)

	var out wordCounter
	var chapters []domain.Chapter
	for i, ref := range book.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		page, err := openSpineItem(ref.Item)
		if err != nil {
			continue
		}

		start := out.words
		inner := page.write(&out)
		if out.words == start {
			continue
		}

		title := lookupTitle(tocByHref, ref.Item.HREF)
		if title == "" {
			title = page.Title()
		}
		if title == "" && len(inner) > 0 {
			title = inner[0].Title
		}
		if title == "" {
			title = fmt.Sprintf("Section %d", i+1)
		}
		chapters = append(chapters, domain.Chapter{Title: title, StartIndex: start})
	}

	return domain.Content{Text: out.String(), Chapters: chapters}, nil
}

func openSpineItem(item *epub.Item) (*htmlPage, error) {
	r, err := item.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parseHTML(bytes.NewReader(data))
}

func lookupTitle(tocByHref map[string]string, href string) string {
	if href == "" {
		return ""
	}
	if t, ok := tocByHref[href]; ok {
		return t
	}
	return tocByHref[path.Base(href)]
}
