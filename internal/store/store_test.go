package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metcalfc/rsvp/internal/domain"
)

// repositories runs fn against every implementation.
func repositories(t *testing.T, fn func(t *testing.T, repo domain.Repository)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemory())
	})
	t.Run("sqlite", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "library.db"))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		fn(t, db)
	})
}

func TestDocuments(t *testing.T) {
	repositories(t, func(t *testing.T, repo domain.Repository) {
		ctx := context.Background()
		base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		id1, err := repo.CreateDocument(ctx, &domain.Document{
			Title: "Moby Dick", FilePath: "/books/moby.epub", FileType: "EPUB",
			ContentHash: "aaa", TotalWords: 1000, AddedAt: base,
		})
		require.NoError(t, err)
		id2, err := repo.CreateDocument(ctx, &domain.Document{
			Title: "Pasted note", FileType: "Text", ContentHash: "bbb",
			Folder: domain.ClipboardFolder, AddedAt: base.Add(time.Hour),
		})
		require.NoError(t, err)
		assert.NotEqual(t, id1, id2)

		got, err := repo.GetDocument(ctx, id1)
		require.NoError(t, err)
		assert.Equal(t, "Moby Dick", got.Title)
		assert.Equal(t, domain.DefaultFolder, got.Folder)
		assert.Equal(t, domain.DefaultLanguage, got.Language)
		assert.True(t, base.Equal(got.AddedAt))

		byHash, err := repo.FindDocumentByHash(ctx, "bbb")
		require.NoError(t, err)
		assert.Equal(t, id2, byHash.ID)

		all, err := repo.ListDocuments(ctx, domain.DocumentFilter{})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, id2, all[0].ID, "newest first")

		found, err := repo.ListDocuments(ctx, domain.DocumentFilter{Query: "moby"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, id1, found[0].ID)

		clip, err := repo.ListDocuments(ctx, domain.DocumentFilter{Folder: domain.ClipboardFolder})
		require.NoError(t, err)
		require.Len(t, clip, 1)
		assert.Equal(t, id2, clip[0].ID)

		folders, err := repo.ListFolders(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{domain.ClipboardFolder, domain.DefaultFolder}, folders)

		require.NoError(t, repo.UpdateProgress(ctx, id1, 421))
		got, err = repo.GetDocument(ctx, id1)
		require.NoError(t, err)
		assert.Equal(t, 421, got.LastReadPosition)

		require.NoError(t, repo.DeleteDocument(ctx, id2))
		_, err = repo.GetDocument(ctx, id2)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestMissingDocument(t *testing.T) {
	repositories(t, func(t *testing.T, repo domain.Repository) {
		ctx := context.Background()
		_, err := repo.GetDocument(ctx, 99)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = repo.FindDocumentByHash(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, repo.UpdateProgress(ctx, 99, 1), domain.ErrNotFound)
		assert.ErrorIs(t, repo.DeleteDocument(ctx, 99), domain.ErrNotFound)
	})
}

func TestLikeWildcardsAreLiteral(t *testing.T) {
	repositories(t, func(t *testing.T, repo domain.Repository) {
		ctx := context.Background()
		_, err := repo.CreateDocument(ctx, &domain.Document{Title: "100% Go", ContentHash: "x"})
		require.NoError(t, err)
		_, err = repo.CreateDocument(ctx, &domain.Document{Title: "1000 Go", ContentHash: "y"})
		require.NoError(t, err)

		docs, err := repo.ListDocuments(ctx, domain.DocumentFilter{Query: "0%"})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "100% Go", docs[0].Title)
	})
}

func TestBookmarks(t *testing.T) {
	repositories(t, func(t *testing.T, repo domain.Repository) {
		ctx := context.Background()
		doc, err := repo.CreateDocument(ctx, &domain.Document{Title: "Book", ContentHash: "h"})
		require.NoError(t, err)

		_, err = repo.SaveBookmark(ctx, &domain.Bookmark{DocumentID: doc, Position: 50, Label: "Position 50"})
		require.NoError(t, err)
		first, err := repo.SaveBookmark(ctx, &domain.Bookmark{DocumentID: doc, Position: 10, Label: "Position 10"})
		require.NoError(t, err)

		// Same position replaces.
		again, err := repo.SaveBookmark(ctx, &domain.Bookmark{DocumentID: doc, Position: 10, Label: "again"})
		require.NoError(t, err)
		assert.Equal(t, first, again)

		marks, err := repo.ListBookmarks(ctx, doc)
		require.NoError(t, err)
		require.Len(t, marks, 2)
		assert.Equal(t, 10, marks[0].Position)
		assert.Equal(t, "again", marks[0].Label)
		assert.Equal(t, 50, marks[1].Position)

		require.NoError(t, repo.DeleteBookmark(ctx, first))
		assert.ErrorIs(t, repo.DeleteBookmark(ctx, first), domain.ErrNotFound)

		// Deleting the document removes its bookmarks.
		require.NoError(t, repo.DeleteDocument(ctx, doc))
		marks, err = repo.ListBookmarks(ctx, doc)
		require.NoError(t, err)
		assert.Empty(t, marks)
	})
}

func TestDailyStats(t *testing.T) {
	repositories(t, func(t *testing.T, repo domain.Repository) {
		ctx := context.Background()

		_, err := repo.GetDailyStats(ctx, "2024-05-01")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		require.NoError(t, repo.IncrementDailyStats(ctx, "2024-05-01", 120, 40*time.Second))
		require.NoError(t, repo.IncrementDailyStats(ctx, "2024-05-01", 30, 30*time.Second))
		require.NoError(t, repo.IncrementDailyStats(ctx, "2024-05-03", 5, time.Second))
		require.NoError(t, repo.IncrementDailyStats(ctx, "2024-05-02", 7, 2*time.Minute))

		day, err := repo.GetDailyStats(ctx, "2024-05-01")
		require.NoError(t, err)
		assert.Equal(t, 150, day.WordsRead)
		assert.Equal(t, 70*time.Second, day.ReadingTime)
		assert.Equal(t, 1, day.MinutesRead())

		recent, err := repo.RecentDailyStats(ctx, 2)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, "2024-05-03", recent[0].Date)
		assert.Equal(t, "2024-05-02", recent[1].Date)
	})
}

func TestSQLiteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "library.db")
	db, err := Open(path)
	require.NoError(t, err)
	id, err := db.CreateDocument(context.Background(), &domain.Document{Title: "Kept", ContentHash: "k"})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	doc, err := db.GetDocument(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Kept", doc.Title)
}
