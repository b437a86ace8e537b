package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/smeta/internal/db"
)

// MaxHistoryEntries bounds the stored address bar history.
const MaxHistoryEntries = 500

type SQLiteHistoryRepo struct {
	db db.DBTX
}

func NewSQLiteHistoryRepo(conn db.DBTX) *SQLiteHistoryRepo {
	return &SQLiteHistoryRepo{db: conn}
}

// Append records entry, skipping blanks and immediate repeats, and trims
// the table to MaxHistoryEntries.
func (r *SQLiteHistoryRepo) Append(ctx context.Context, entry string) error {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return nil
	}
	var last string
	err := r.db.QueryRowContext(ctx, `SELECT entry FROM address_history ORDER BY id DESC LIMIT 1`).Scan(&last)
	if err == nil && last == entry {
		return nil
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO address_history (entry, visited_at) VALUES (?, ?)`, entry, nowUTC()); err != nil {
		return fmt.Errorf("appending history: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM address_history WHERE id NOT IN (
			SELECT id FROM address_history ORDER BY id DESC LIMIT ?)`, MaxHistoryEntries); err != nil {
		return fmt.Errorf("trimming history: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, oldest first.
func (r *SQLiteHistoryRepo) Recent(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = MaxHistoryEntries
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT entry FROM (SELECT id, entry FROM address_history ORDER BY id DESC LIMIT ?) ORDER BY id ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
