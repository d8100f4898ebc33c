package nav

import (
	"context"
	"fmt"
	"time"

	"github.com/metcalfc/rsvp/internal/domain"
)

// Bookmarks saves reading positions through the repository.
type Bookmarks struct {
	repo domain.BookmarkRepository
	now  func() time.Time
}

// NewBookmarks wraps repo.
func NewBookmarks(repo domain.BookmarkRepository) *Bookmarks {
	return &Bookmarks{repo: repo, now: time.Now}
}

// Label is the default name of a bookmark at index.
func Label(index int) string {
	return fmt.Sprintf("Position %d", index)
}

// Add bookmarks index in docID. An existing bookmark at the same index is
// replaced.
func (b *Bookmarks) Add(ctx context.Context, docID int64, index int) (domain.Bookmark, error) {
	bm := domain.Bookmark{
		DocumentID: docID,
		Position:   index,
		Label:      Label(index),
		CreatedAt:  b.now(),
	}
	id, err := b.repo.SaveBookmark(ctx, &bm)
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("add bookmark: %w", err)
	}
	bm.ID = id
	return bm, nil
}

// Delete removes a bookmark.
func (b *Bookmarks) Delete(ctx context.Context, id int64) error {
	if err := b.repo.DeleteBookmark(ctx, id); err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	return nil
}

// List returns the bookmarks of docID ordered by position.
func (b *Bookmarks) List(ctx context.Context, docID int64) ([]domain.Bookmark, error) {
	marks, err := b.repo.ListBookmarks(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return marks, nil
}
