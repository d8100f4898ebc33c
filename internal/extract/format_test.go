package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestExtract(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("plain text", func(t *testing.T) {
		content := "Hello world this is a test."
		path := filepath.Join(tmpDir, "test.txt")
		os.WriteFile(path, []byte(content), 0644)

		got, err := Extract(path)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if got.Text != content {
			t.Errorf("got %q, want %q", got.Text, content)
		}
		if len(got.Chapters) != 0 {
			t.Errorf("plain text should have no chapters, got %v", got.Chapters)
		}
	})

	t.Run("unknown extension falls back to plain text", func(t *testing.T) {
		content := "Some log content"
		path := filepath.Join(tmpDir, "test.log")
		os.WriteFile(path, []byte(content), 0644)

		got, err := Extract(path)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if got.Text != content {
			t.Errorf("got %q, want %q", got.Text, content)
		}
	})

	t.Run("nonexistent file", func(t *testing.T) {
		got, err := Extract(filepath.Join(tmpDir, "nonexistent.txt"))
		var exErr *ExtractionError
		if !errors.As(err, &exErr) {
			t.Fatalf("expected ExtractionError, got %v", err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("ExtractionError should unwrap to ErrNotExist: %v", err)
		}
		if got.Text != "" {
			t.Errorf("failed extraction should give empty text, got %q", got.Text)
		}
	})

	t.Run("corrupt epub", func(t *testing.T) {
		path := filepath.Join(tmpDir, "broken.epub")
		os.WriteFile(path, []byte("not a zip"), 0644)

		_, err := Extract(path)
		var exErr *ExtractionError
		if !errors.As(err, &exErr) || exErr.Format != "EPUB" {
			t.Fatalf("expected EPUB ExtractionError, got %v", err)
		}
	})
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"book.EPUB", "EPUB"},
		{"notes.md", "Markdown"},
		{"page.htm", "HTML"},
		{"paper.pdf", "PDF"},
		{"readme", "Text"},
	}
	for _, tt := range tests {
		if got := FormatFor(tt.file).Name(); got != tt.want {
			t.Errorf("FormatFor(%q) = %s, want %s", tt.file, got, tt.want)
		}
	}
}

func TestSupportedFormats(t *testing.T) {
	formats := SupportedFormats()
	if len(formats) == 0 {
		t.Error("no formats registered")
	}
	for _, f := range formats {
		if f == "EPUB (.epub)" {
			return
		}
	}
	t.Errorf("EPUB not registered: %v", formats)
}
