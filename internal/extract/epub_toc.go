package extract

import (
	"encoding/xml"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
)

// ncx is the EPUB 2 table of contents (toc.ncx).
type ncx struct {
	NavMap navMap `xml:"navMap"`
}

type navMap struct {
	NavPoints []navPoint `xml:"navPoint"`
}

type navPoint struct {
	ID        string     `xml:"id,attr"`
	PlayOrder int        `xml:"playOrder,attr"`
	Label     navLabel   `xml:"navLabel"`
	Content   navContent `xml:"content"`
	Children  []navPoint `xml:"navPoint"`
}

type navLabel struct {
	Text string `xml:"text"`
}

type navContent struct {
	Src string `xml:"src,attr"`
}

const ncxMediaType = "application/x-dtbncx+xml"

// tocTitles maps spine hrefs (full, without fragment, and base name) to
// their table-of-contents title. The first entry for an href wins. A book
// without a readable NCX yields an empty map.
func tocTitles(book *epub.Rootfile) map[string]string {
	titles := make(map[string]string)
	toc, err := readNCX(book)
	if err != nil {
		return titles
	}

	add := func(key, title string) {
		if _, exists := titles[key]; !exists && title != "" {
			titles[key] = title
		}
	}
	var walk func(points []navPoint)
	walk = func(points []navPoint) {
		for _, np := range points {
			href := np.Content.Src
			title := strings.TrimSpace(np.Label.Text)
			base, _, _ := strings.Cut(href, "#")
			add(href, title)
			add(base, title)
			add(path.Base(base), title)
			walk(np.Children)
		}
	}
	walk(toc.NavMap.NavPoints)
	return titles
}

func readNCX(book *epub.Rootfile) (*ncx, error) {
	for i := range book.Manifest.Items {
		item := &book.Manifest.Items[i]
		if item.MediaType != ncxMediaType {
			continue
		}
		r, err := item.Open()
		if err != nil {
			return nil, err
		}
		defer r.Close()

		var toc ncx
		if err := xml.NewDecoder(r).Decode(&toc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", item.HREF, err)
		}
		return &toc, nil
	}
	return nil, errors.New("no NCX table of contents")
}
