package store

import (
	"context"
	"fmt"
	"time"

	"github.com/metcalfc/rsvp/internal/domain"
)

// SaveBookmark inserts b, replacing any bookmark of the same document at the
// same position, and returns the stored id.
func (s *SQLite) SaveBookmark(ctx context.Context, b *domain.Bookmark) (int64, error) {
	created := b.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO bookmarks (document_id, position, label, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (document_id, position) DO UPDATE SET
			label = excluded.label,
			created_at = excluded.created_at
		 RETURNING id`,
		b.DocumentID, b.Position, b.Label, created.UTC().Format(timeLayout),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save bookmark: %w", err)
	}
	return id, nil
}

// DeleteBookmark removes a bookmark by id.
func (s *SQLite) DeleteBookmark(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	return expectRow(res, "bookmark", id)
}

// ListBookmarks returns the bookmarks of a document ordered by position.
func (s *SQLite) ListBookmarks(ctx context.Context, documentID int64) ([]domain.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, position, label, created_at
		 FROM bookmarks WHERE document_id = ? ORDER BY position`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	var out []domain.Bookmark
	for rows.Next() {
		var (
			b       domain.Bookmark
			created string
		)
		if err := rows.Scan(&b.ID, &b.DocumentID, &b.Position, &b.Label, &created); err != nil {
			return nil, err
		}
		if b.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("bookmark %d: created_at: %w", b.ID, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
