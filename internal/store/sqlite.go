// Package store implements the reading library repository on SQLite and in
// memory.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/metcalfc/rsvp/internal/domain"

	_ "modernc.org/sqlite" // SQLite driver.
)

//go:embed schema.sql
var schemaSQL string

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLite is the on-disk repository.
type SQLite struct {
	db *sql.DB
}

var _ domain.Repository = (*SQLite)(nil)

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: SQLite serializes writers anyway and the pragmas
	// below are per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

const documentColumns = `id, title, file_path, file_type, content_hash, last_read_position,
	total_words, folder, language, added_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	var (
		d       domain.Document
		addedAt string
	)
	err := row.Scan(&d.ID, &d.Title, &d.FilePath, &d.FileType, &d.ContentHash,
		&d.LastReadPosition, &d.TotalWords, &d.Folder, &d.Language, &addedAt)
	if err != nil {
		return nil, err
	}
	d.AddedAt, err = time.Parse(timeLayout, addedAt)
	if err != nil {
		return nil, fmt.Errorf("document %d: added_at: %w", d.ID, err)
	}
	return &d, nil
}

// CreateDocument inserts doc and returns its id. Empty folder and language
// take their defaults.
func (s *SQLite) CreateDocument(ctx context.Context, doc *domain.Document) (int64, error) {
	folder := doc.Folder
	if folder == "" {
		folder = domain.DefaultFolder
	}
	lang := doc.Language
	if lang == "" {
		lang = domain.DefaultLanguage
	}
	added := doc.AddedAt
	if added.IsZero() {
		added = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (title, file_path, file_type, content_hash, last_read_position,
			total_words, folder, language, added_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.Title, doc.FilePath, doc.FileType, doc.ContentHash, doc.LastReadPosition,
		doc.TotalWords, folder, lang, added.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	return res.LastInsertId()
}

// GetDocument returns domain.ErrNotFound for an unknown id.
func (s *SQLite) GetDocument(ctx context.Context, id int64) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
	}
	return d, err
}

// FindDocumentByHash returns domain.ErrNotFound when no document has hash.
func (s *SQLite) FindDocumentByHash(ctx context.Context, hash string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE content_hash = ? ORDER BY id LIMIT 1`, hash)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("hash %s: %w", hash, domain.ErrNotFound)
	}
	return d, err
}

// ListDocuments returns matching documents, newest first.
func (s *SQLite) ListDocuments(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	var (
		where []string
		args  []any
	)
	if q := strings.TrimSpace(filter.Query); q != "" {
		where = append(where, `title LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(q)+"%")
	}
	if filter.Folder != "" {
		where = append(where, `folder = ?`)
		args = append(args, filter.Folder)
	}
	query := `SELECT ` + documentColumns + ` FROM documents`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY added_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// ListFolders returns the distinct folder names in order.
func (s *SQLite) ListFolders(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT folder FROM documents ORDER BY folder`)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var folders []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// UpdateProgress stores the reading position of a document.
func (s *SQLite) UpdateProgress(ctx context.Context, id int64, position int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET last_read_position = ? WHERE id = ?`, position, id)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return expectRow(res, "document", id)
}

// DeleteDocument removes a document and its bookmarks.
func (s *SQLite) DeleteDocument(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return expectRow(res, "document", id)
}

func expectRow(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, domain.ErrNotFound)
	}
	return nil
}
