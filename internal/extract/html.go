package extract

import (
	"io"
	"os"
	"strings"

	"github.com/metcalfc/rsvp/internal/domain"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLFormat reads HTML pages. h1 to h3 headings become chapters.
type HTMLFormat struct{}

func init() {
	Register(&HTMLFormat{})
}

func (f *HTMLFormat) Name() string         { return "HTML" }
func (f *HTMLFormat) Extensions() []string { return []string{".html", ".htm", ".xhtml"} }

func (f *HTMLFormat) Extract(filename string) (domain.Content, error) {
	file, err := os.Open(filename)
	if err != nil {
		return domain.Content{}, err
	}
	defer file.Close()

	page, err := parseHTML(file)
	if err != nil {
		return domain.Content{}, err
	}
	var out wordCounter
	chapters := page.write(&out)
	return domain.Content{Text: out.String(), Chapters: chapters}, nil
}

// htmlPage is the readable part of one HTML document.
type htmlPage struct {
	root *html.Node
}

func parseHTML(r io.Reader) (*htmlPage, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &htmlPage{root: doc}, nil
}

// skipped holds elements whose text is never read aloud.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Head:     true,
}

func isHeading(a atom.Atom) bool {
	return a == atom.H1 || a == atom.H2 || a == atom.H3
}

// write appends the page text to out and returns a chapter per heading.
func (p *htmlPage) write(out *wordCounter) []domain.Chapter {
	var chapters []domain.Chapter
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipped[n.DataAtom] {
				return
			}
			if isHeading(n.DataAtom) {
				if title := nodeText(n); title != "" {
					chapters = append(chapters, domain.Chapter{Title: title, StartIndex: out.words})
				}
			}
		}
		if n.Type == html.TextNode {
			out.write(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(p.root)
	return chapters
}

// Title returns the first heading, falling back to the <title> element.
func (p *htmlPage) Title() string {
	if h := findFirst(p.root, isHeading); h != nil {
		if t := nodeText(h); t != "" {
			return t
		}
	}
	if t := findFirst(p.root, func(a atom.Atom) bool { return a == atom.Title }); t != nil {
		return nodeText(t)
	}
	return ""
}

func findFirst(n *html.Node, match func(atom.Atom) bool) *html.Node {
	if n.Type == html.ElementNode && match(n.DataAtom) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
