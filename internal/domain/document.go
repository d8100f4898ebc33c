// Package domain holds the entities shared by the reading engine and the
// collaborator interfaces it depends on.
package domain

import "time"

const (
	// DefaultFolder is the folder new documents land in.
	DefaultFolder = "Default"
	// ClipboardFolder holds documents imported from pasted or piped text.
	ClipboardFolder = "Clipboard"
	// DefaultLanguage is the language code assumed for imported documents.
	DefaultLanguage = "en"
	// DateLayout keys daily statistics by local calendar date.
	DateLayout = "2006-01-02"
)

// Document is a library entry. The reading engine only ever writes
// LastReadPosition.
type Document struct {
	ID               int64
	Title            string
	FilePath         string
	FileType         string
	ContentHash      string
	LastReadPosition int
	TotalWords       int
	Folder           string
	Language         string
	AddedAt          time.Time
}

// Chapter marks where a titled section starts in the token sequence.
type Chapter struct {
	Title      string
	StartIndex int
}

// Content is what extraction produces: raw text plus chapter markers whose
// StartIndex counts whitespace-separated words of Text.
type Content struct {
	Text     string
	Chapters []Chapter
}

// Bookmark is a saved position inside a document.
type Bookmark struct {
	ID         int64
	DocumentID int64
	Position   int
	Label      string
	CreatedAt  time.Time
}

// DailyStats is the running reading total for one calendar date.
type DailyStats struct {
	Date        string
	WordsRead   int
	ReadingTime time.Duration
}

// MinutesRead returns the whole minutes spent reading on the date.
func (d DailyStats) MinutesRead() int {
	return int(d.ReadingTime / time.Minute)
}

// DocumentFilter narrows library listings. Empty fields match everything.
type DocumentFilter struct {
	Query  string
	Folder string
}
