package extract

import (
	"os"
	"strings"

	"github.com/metcalfc/rsvp/internal/domain"
)

// PlainFormat reads UTF-8 text files. It is also the fallback for unknown
// extensions.
type PlainFormat struct{}

func init() {
	Register(&PlainFormat{})
}

func (f *PlainFormat) Name() string         { return "Text" }
func (f *PlainFormat) Extensions() []string { return []string{".txt", ".text"} }

func (f *PlainFormat) Extract(filename string) (domain.Content, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return domain.Content{}, err
	}
	return domain.Content{Text: strings.ToValidUTF8(string(data), "")}, nil
}
