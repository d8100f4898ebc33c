// Package extract pulls readable text and chapter markers out of document
// files. Formats register themselves by extension; anything unrecognised is
// read as plain text.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/metcalfc/rsvp/internal/domain"
)

// Format defines a file format reader.
type Format interface {
	Name() string
	Extensions() []string
	Extract(filename string) (domain.Content, error)
}

var registry []Format

// Register adds a format reader to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// ExtractionError reports a source that could not be read or parsed.
type ExtractionError struct {
	Path   string
	Format string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s (%s): %v", e.Path, e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// FormatFor returns the registered format for filename, or plain text.
func FormatFor(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				return f
			}
		}
	}
	return &PlainFormat{}
}

// Extract reads filename with the matching format. Failures come back as
// *ExtractionError alongside empty content.
func Extract(filename string) (domain.Content, error) {
	f := FormatFor(filename)
	content, err := f.Extract(filename)
	if err != nil {
		return domain.Content{}, &ExtractionError{Path: filename, Format: f.Name(), Err: err}
	}
	return content, nil
}

// Extractor adapts the registry to domain.Extractor.
type Extractor struct{}

var _ domain.Extractor = Extractor{}

// Extract implements domain.Extractor.
func (Extractor) Extract(path string) (domain.Content, error) {
	return Extract(path)
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}

// wordCounter accumulates text while tracking how many whitespace-separated
// words have been written, so chapter markers can point at word indices.
type wordCounter struct {
	sb    strings.Builder
	words int
}

func (w *wordCounter) write(s string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return
	}
	if w.sb.Len() > 0 {
		w.sb.WriteByte(' ')
	}
	w.sb.WriteString(strings.Join(fields, " "))
	w.words += len(fields)
}

func (w *wordCounter) String() string { return w.sb.String() }
