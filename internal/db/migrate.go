package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// migrations are re-applied on every open, so each statement must be
// idempotent. Column additions fail with "duplicate column name" once
// applied, which Migrate tolerates.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`ALTER TABLE settings ADD COLUMN updated_at TEXT NOT NULL DEFAULT ''`,
	`CREATE TABLE IF NOT EXISTS address_history (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		entry      TEXT NOT NULL,
		visited_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_address_history_visited ON address_history(visited_at)`,
}

// Migrate brings the schema up to date.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
