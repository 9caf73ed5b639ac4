// Package store is the relational storage collaborator: four record
// collections in SQLite with fetch-all-matching-filter reads and
// insert-or-update-by-identifier writes.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages the okrpulse database.
type Store struct {
	DBPath string
	db     *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure db dir: %w", err)
	}

	db, err := sql.Open("sqlite", absPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	store := &Store{DBPath: absPath, db: db}
	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ensureSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS profiles (
	id TEXT PRIMARY KEY,
	full_name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	entity TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'employee',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS okrs (
	id TEXT PRIMARY KEY,
	okr_code TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	entity TEXT NOT NULL DEFAULT '',
	quarter TEXT NOT NULL,
	assigned_to TEXT NOT NULL,
	key_results_json TEXT NOT NULL DEFAULT '[]',
	metrics_json TEXT NOT NULL DEFAULT '[]',
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS weekly_updates (
	id TEXT PRIMARY KEY,
	okr_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	week_start TEXT NOT NULL,
	update_text TEXT NOT NULL,
	progress_score INTEGER NOT NULL,
	needs_support INTEGER NOT NULL DEFAULT 0,
	support_details TEXT,
	metric_values_json TEXT NOT NULL DEFAULT '{}',
	submitted_at TEXT NOT NULL,
	UNIQUE (okr_id, week_start)
);

CREATE INDEX IF NOT EXISTS idx_updates_week ON weekly_updates(week_start);
CREATE INDEX IF NOT EXISTS idx_updates_user ON weekly_updates(user_id, week_start);

CREATE TABLE IF NOT EXISTS management_reports (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	week_start TEXT NOT NULL,
	report_text TEXT NOT NULL DEFAULT '',
	attachment_url TEXT NOT NULL DEFAULT '',
	submitted_at TEXT NOT NULL,
	UNIQUE (user_id, week_start)
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(value sql.NullString) time.Time {
	if !value.Valid {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
