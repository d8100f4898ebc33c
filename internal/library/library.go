// Package library imports documents, keeps them in the repository and
// loads them into token sequences ready for playback.
package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/metcalfc/rsvp/internal/domain"
	"github.com/metcalfc/rsvp/internal/extract"
	"github.com/metcalfc/rsvp/internal/logger"
	"github.com/metcalfc/rsvp/internal/text"
)

// WeekDays is how many daily records WeeklyStats returns.
const WeekDays = 7

// Library is the document collection.
type Library struct {
	repo      domain.Repository
	extractor domain.Extractor
	dataDir   string
	lang      string
	log       *logger.Logger
	now       func() time.Time
}

// Option configures a Library.
type Option func(*Library)

// WithExtractor replaces the format registry.
func WithExtractor(e domain.Extractor) Option {
	return func(l *Library) { l.extractor = e }
}

// WithLanguage sets the language recorded for new imports.
func WithLanguage(lang string) Option {
	return func(l *Library) { l.lang = lang }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Library) { l.now = now }
}

// New creates a library over repo. Imported text is saved under dataDir.
func New(repo domain.Repository, dataDir string, log *logger.Logger, opts ...Option) *Library {
	l := &Library{
		repo:      repo,
		extractor: extract.Extractor{},
		dataDir:   dataDir,
		lang:      domain.DefaultLanguage,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Book is a loaded document ready to play.
type Book struct {
	Document domain.Document
	Tokens   []string
	Chapters []domain.Chapter
	// Start is the resume index clamped to the token range.
	Start int
}

// Import adds the file at path. When a document with the same content hash
// already exists it is returned with existing set and nothing is added.
func (l *Library) Import(ctx context.Context, path, folder string) (doc *domain.Document, existing bool, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false, err
	}
	hash, err := ComputeHash(abs)
	if err != nil {
		return nil, false, fmt.Errorf("import %s: %w", path, err)
	}
	if found, err := l.repo.FindDocumentByHash(ctx, hash); err == nil {
		return found, true, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	content, err := l.extractor.Extract(abs)
	if err != nil {
		return nil, false, err
	}
	tokens, _ := Tokenize(content, l.lang)

	if folder == "" {
		folder = domain.DefaultFolder
	}
	d := &domain.Document{
		Title:       filepath.Base(abs),
		FilePath:    abs,
		FileType:    extract.FormatFor(abs).Name(),
		ContentHash: hash,
		TotalWords:  len(tokens),
		Folder:      folder,
		Language:    l.lang,
		AddedAt:     l.now(),
	}
	if d.ID, err = l.repo.CreateDocument(ctx, d); err != nil {
		return nil, false, err
	}
	l.log.Info("library: imported %q as %d (%d words)", d.Title, d.ID, d.TotalWords)
	return d, false, nil
}

// ImportText saves pasted or piped text under the data directory and adds
// it to the Clipboard folder.
func (l *Library) ImportText(ctx context.Context, raw string) (*domain.Document, bool, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, false, domain.ErrEmptyText
	}
	hash, err := hashReader(strings.NewReader(raw))
	if err != nil {
		return nil, false, err
	}
	if found, err := l.repo.FindDocumentByHash(ctx, hash); err == nil {
		return found, true, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	if err := os.MkdirAll(l.dataDir, 0o755); err != nil {
		return nil, false, err
	}
	now := l.now()
	path := filepath.Join(l.dataDir, fmt.Sprintf("Clipboard_%d.txt", now.UnixMilli()))
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		return nil, false, err
	}

	tokens := text.Prepare(raw, l.lang)
	d := &domain.Document{
		Title:       "Clipboard " + now.Format("2006-01-02 15:04:05"),
		FilePath:    path,
		FileType:    (&extract.PlainFormat{}).Name(),
		ContentHash: hash,
		TotalWords:  len(tokens),
		Folder:      domain.ClipboardFolder,
		Language:    l.lang,
		AddedAt:     now,
	}
	if d.ID, err = l.repo.CreateDocument(ctx, d); err != nil {
		os.Remove(path)
		return nil, false, err
	}
	return d, false, nil
}

// Open loads a document by id. An unknown id yields domain.ErrNotFound.
// A file that can no longer be read is logged and loads as zero tokens.
func (l *Library) Open(ctx context.Context, id int64) (*Book, error) {
	doc, err := l.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	book := l.load(doc.FilePath, doc.Language)
	book.Document = *doc
	book.Start = ClampStart(doc.LastReadPosition, len(book.Tokens))
	return book, nil
}

func (l *Library) load(path, lang string) *Book {
	content, err := l.extractor.Extract(path)
	if err != nil {
		l.log.Error("library: %v", err)
		return &Book{}
	}
	tokens, chapters := Tokenize(content, lang)
	return &Book{Tokens: tokens, Chapters: chapters}
}

// Tokenize turns extracted content into tokens, one chapter section at a
// time so chapter starts land on exact token indices.
func Tokenize(content domain.Content, lang string) ([]string, []domain.Chapter) {
	words := strings.Fields(content.Text)
	if len(content.Chapters) == 0 {
		return text.Prepare(content.Text, lang), nil
	}

	var (
		tokens   []string
		chapters = make([]domain.Chapter, 0, len(content.Chapters))
		from     = 0
	)
	flush := func(to int) {
		if to > from {
			tokens = append(tokens, text.Prepare(strings.Join(words[from:to], " "), lang)...)
			from = to
		}
	}
	for _, ch := range content.Chapters {
		start := min(max(ch.StartIndex, from), len(words))
		flush(start)
		chapters = append(chapters, domain.Chapter{Title: ch.Title, StartIndex: len(tokens)})
	}
	flush(len(words))
	return tokens, chapters
}

// ClampStart keeps a saved position inside [0, n-1].
func ClampStart(pos, n int) int {
	if n == 0 || pos < 0 {
		return 0
	}
	return min(pos, n-1)
}

// List returns documents matching filter, newest first.
func (l *Library) List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	return l.repo.ListDocuments(ctx, filter)
}

// Folders returns the folder names in use.
func (l *Library) Folders(ctx context.Context) ([]string, error) {
	return l.repo.ListFolders(ctx)
}

// Delete removes a document. Text saved by ImportText is deleted with it;
// files imported from elsewhere are left alone.
func (l *Library) Delete(ctx context.Context, id int64) error {
	doc, err := l.repo.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if err := l.repo.DeleteDocument(ctx, id); err != nil {
		return err
	}
	if l.owns(doc.FilePath) {
		if err := os.Remove(doc.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			l.log.Warn("library: remove %s: %v", doc.FilePath, err)
		}
	}
	return nil
}

func (l *Library) owns(path string) bool {
	if l.dataDir == "" {
		return false
	}
	rel, err := filepath.Rel(l.dataDir, path)
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}

// WeeklyStats returns the last WeekDays daily records, latest first.
func (l *Library) WeeklyStats(ctx context.Context) ([]domain.DailyStats, error) {
	return l.repo.RecentDailyStats(ctx, WeekDays)
}

// Today returns today's reading totals, zero when nothing was read.
func (l *Library) Today(ctx context.Context) (domain.DailyStats, error) {
	date := l.now().Format(domain.DateLayout)
	d, err := l.repo.GetDailyStats(ctx, date)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.DailyStats{Date: date}, nil
	}
	if err != nil {
		return domain.DailyStats{}, err
	}
	return *d, nil
}

// Repository exposes the underlying repository for the session writer and
// bookmarks.
func (l *Library) Repository() domain.Repository { return l.repo }
