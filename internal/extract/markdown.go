package extract

import (
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"

	"github.com/metcalfc/rsvp/internal/domain"
)

// MarkdownFormat reads Markdown, turning headings into chapters.
type MarkdownFormat struct{}

func init() {
	Register(&MarkdownFormat{})
}

func (f *MarkdownFormat) Name() string         { return "Markdown" }
func (f *MarkdownFormat) Extensions() []string { return []string{".md", ".markdown"} }

// Extract renders the document to plain prose: markup is dropped, heading
// titles stay in the text. A file with no headings becomes a single
// "Document" chapter.
func (f *MarkdownFormat) Extract(filename string) (domain.Content, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return domain.Content{}, err
	}
	doc := goldmark.New().Parser().Parse(gtext.NewReader(src))

	var (
		out      wordCounter
		chapters []domain.Chapter
		block    strings.Builder
	)
	flush := func() {
		out.write(block.String())
		block.Reset()
	}

	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n := n.(type) {
		case *ast.Heading:
			if entering {
				flush()
				return ast.WalkContinue, nil
			}
			if title := strings.Join(strings.Fields(block.String()), " "); title != "" {
				chapters = append(chapters, domain.Chapter{Title: title, StartIndex: out.words})
			}
			flush()
			return ast.WalkContinue, nil

		case *ast.Text:
			if entering {
				block.Write(n.Segment.Value(src))
				if n.SoftLineBreak() || n.HardLineBreak() {
					block.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				block.Write(n.Value)
			}
		case *ast.AutoLink:
			if entering {
				block.Write(n.Label(src))
			}
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					block.Write(seg.Value(src))
					block.WriteByte(' ')
				}
			}
		}
		if !entering && n.Type() == ast.TypeBlock {
			flush()
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return domain.Content{}, err
	}
	flush()

	if len(chapters) == 0 && out.words > 0 {
		chapters = []domain.Chapter{{Title: "Document", StartIndex: 0}}
	}
	return domain.Content{Text: out.String(), Chapters: chapters}, nil
}
