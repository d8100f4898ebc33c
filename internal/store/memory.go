package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/metcalfc/rsvp/internal/domain"
)

// Memory is a Repository kept in process memory. It backs tests and the
// --no-library reading mode.
type Memory struct {
	mu        sync.RWMutex
	docs      map[int64]domain.Document
	bookmarks map[int64]domain.Bookmark
	stats     map[string]domain.DailyStats
	nextDoc   int64
	nextMark  int64
}

var _ domain.Repository = (*Memory)(nil)

// NewMemory returns an empty repository.
func NewMemory() *Memory {
	return &Memory{
		docs:      make(map[int64]domain.Document),
		bookmarks: make(map[int64]domain.Bookmark),
		stats:     make(map[string]domain.DailyStats),
	}
}

// Close implements domain.Repository.
func (m *Memory) Close() error { return nil }

func (m *Memory) CreateDocument(_ context.Context, doc *domain.Document) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextDoc++
	d := *doc
	d.ID = m.nextDoc
	if d.Folder == "" {
		d.Folder = domain.DefaultFolder
	}
	if d.Language == "" {
		d.Language = domain.DefaultLanguage
	}
	if d.AddedAt.IsZero() {
		d.AddedAt = time.Now()
	}
	m.docs[d.ID] = d
	return d.ID, nil
}

func (m *Memory) GetDocument(_ context.Context, id int64) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
	}
	return &d, nil
}

func (m *Memory) FindDocumentByHash(_ context.Context, hash string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var found *domain.Document
	for _, d := range m.docs {
		if d.ContentHash == hash && (found == nil || d.ID < found.ID) {
			d := d
			found = &d
		}
	}
	if found == nil {
		return nil, fmt.Errorf("hash %s: %w", hash, domain.ErrNotFound)
	}
	return found, nil
}

func (m *Memory) ListDocuments(_ context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(filter.Query))
	var out []domain.Document
	for _, d := range m.docs {
		if q != "" && !strings.Contains(strings.ToLower(d.Title), q) {
			continue
		}
		if filter.Folder != "" && d.Folder != filter.Folder {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.After(out[j].AddedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) ListFolders(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, d := range m.docs {
		if !seen[d.Folder] {
			seen[d.Folder] = true
			out = append(out, d.Folder)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) UpdateProgress(_ context.Context, id int64, position int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
	}
	d.LastReadPosition = position
	m.docs[id] = d
	return nil
}

func (m *Memory) DeleteDocument(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
	}
	delete(m.docs, id)
	for bid, b := range m.bookmarks {
		if b.DocumentID == id {
			delete(m.bookmarks, bid)
		}
	}
	return nil
}

func (m *Memory) SaveBookmark(_ context.Context, b *domain.Bookmark) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := *b
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now()
	}
	for id, existing := range m.bookmarks {
		if existing.DocumentID == b.DocumentID && existing.Position == b.Position {
			saved.ID = id
			m.bookmarks[id] = saved
			return id, nil
		}
	}
	m.nextMark++
	saved.ID = m.nextMark
	m.bookmarks[saved.ID] = saved
	return saved.ID, nil
}

func (m *Memory) DeleteBookmark(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookmarks[id]; !ok {
		return fmt.Errorf("bookmark %d: %w", id, domain.ErrNotFound)
	}
	delete(m.bookmarks, id)
	return nil
}

func (m *Memory) ListBookmarks(_ context.Context, documentID int64) ([]domain.Bookmark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Bookmark
	for _, b := range m.bookmarks {
		if b.DocumentID == documentID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *Memory) IncrementDailyStats(_ context.Context, date string, words int, elapsed time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.stats[date]
	d.Date = date
	d.WordsRead += words
	d.ReadingTime += elapsed.Truncate(time.Millisecond)
	m.stats[date] = d
	return nil
}

func (m *Memory) GetDailyStats(_ context.Context, date string) (*domain.DailyStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.stats[date]
	if !ok {
		return nil, fmt.Errorf("stats %s: %w", date, domain.ErrNotFound)
	}
	return &d, nil
}

func (m *Memory) RecentDailyStats(_ context.Context, limit int) ([]domain.DailyStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.DailyStats, 0, len(m.stats))
	for _, d := range m.stats {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
