package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/metcalfc/rsvp/internal/domain"
)

// IncrementDailyStats adds words and elapsed to the totals for date,
// creating the row on first use.
func (s *SQLite) IncrementDailyStats(ctx context.Context, date string, words int, elapsed time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_stats (date, words_read, reading_time_ms) VALUES (?, ?, ?)
		 ON CONFLICT (date) DO UPDATE SET
			words_read = words_read + excluded.words_read,
			reading_time_ms = reading_time_ms + excluded.reading_time_ms`,
		date, words, elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("increment stats %s: %w", date, err)
	}
	return nil
}

// GetDailyStats returns domain.ErrNotFound for a date with no reading.
func (s *SQLite) GetDailyStats(ctx context.Context, date string) (*domain.DailyStats, error) {
	var (
		d  domain.DailyStats
		ms int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT date, words_read, reading_time_ms FROM daily_stats WHERE date = ?`, date,
	).Scan(&d.Date, &d.WordsRead, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stats %s: %w", date, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	d.ReadingTime = time.Duration(ms) * time.Millisecond
	return &d, nil
}

// RecentDailyStats returns up to limit records, latest date first.
func (s *SQLite) RecentDailyStats(ctx context.Context, limit int) ([]domain.DailyStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, words_read, reading_time_ms FROM daily_stats ORDER BY date DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent stats: %w", err)
	}
	defer rows.Close()

	var out []domain.DailyStats
	for rows.Next() {
		var (
			d  domain.DailyStats
			ms int64
		)
		if err := rows.Scan(&d.Date, &d.WordsRead, &ms); err != nil {
			return nil, err
		}
		d.ReadingTime = time.Duration(ms) * time.Millisecond
		out = append(out, d)
	}
	return out, rows.Err()
}
