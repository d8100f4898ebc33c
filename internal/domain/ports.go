package domain

import (
	"context"
	"time"
)

// Extractor turns a source file into raw text and chapter markers.
type Extractor interface {
	Extract(path string) (Content, error)
}

// DocumentRepository persists library documents.
type DocumentRepository interface {
	CreateDocument(ctx context.Context, doc *Document) (int64, error)
	GetDocument(ctx context.Context, id int64) (*Document, error)
	FindDocumentByHash(ctx context.Context, hash string) (*Document, error)
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]Document, error)
	ListFolders(ctx context.Context) ([]string, error)
	UpdateProgress(ctx context.Context, id int64, position int) error
	DeleteDocument(ctx context.Context, id int64) error
}

// BookmarkRepository persists bookmarks. Saving a bookmark at a position that
// already has one replaces it.
type BookmarkRepository interface {
	SaveBookmark(ctx context.Context, b *Bookmark) (int64, error)
	DeleteBookmark(ctx context.Context, id int64) error
	ListBookmarks(ctx context.Context, documentID int64) ([]Bookmark, error)
}

// StatsRepository persists per-day reading totals.
type StatsRepository interface {
	IncrementDailyStats(ctx context.Context, date string, words int, elapsed time.Duration) error
	GetDailyStats(ctx context.Context, date string) (*DailyStats, error)
	RecentDailyStats(ctx context.Context, limit int) ([]DailyStats, error)
}

// Repository is the full persistence collaborator.
type Repository interface {
	DocumentRepository
	BookmarkRepository
	StatsRepository
	Close() error
}

// Speaker voices tokens. Speak flushes any pending utterance and must not
// block the caller.
type Speaker interface {
	Speak(word string)
	Stop()
	Shutdown()
}
