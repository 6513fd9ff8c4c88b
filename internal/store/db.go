package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the SQLite database holding plants, calendar tasks and diary
// entries. One Store is created at startup and injected into every component
// that needs persistence.
type Store struct {
	db   *sql.DB
	path string
}

// executor is satisfied by both *sql.DB and *sql.Tx so the task queries can
// run standalone or inside a transaction.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens or creates the database at path and runs migrations.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Cascade deletes (plant -> tasks -> diary) depend on this
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a transaction, committing on nil and rolling back on
// error. The task synchronizer uses this to make its purge/check/insert
// sequence atomic per (plant, category).
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS plants (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nickname TEXT NOT NULL,
		official_name TEXT NOT NULL,
		photo_path TEXT NOT NULL DEFAULT '',
		watering_cycle_min INTEGER NOT NULL DEFAULT 0,
		watering_cycle_max INTEGER NOT NULL DEFAULT 0,
		pesticide_cycle_min INTEGER NOT NULL DEFAULT 0,
		pesticide_cycle_max INTEGER NOT NULL DEFAULT 0,
		temp_range TEXT NOT NULL DEFAULT '',
		lifespan_min INTEGER NOT NULL DEFAULT 0,
		lifespan_max INTEGER NOT NULL DEFAULT 0,
		estimated_age_days INTEGER NOT NULL DEFAULT 0,
		health_rating REAL NOT NULL DEFAULT 0,
		last_watered INTEGER NOT NULL DEFAULT 0,
		last_pesticide INTEGER NOT NULL DEFAULT 0,
		needs_attention_at INTEGER,
		attention_reasons TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS calendar_tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		plant_id INTEGER REFERENCES plants(id) ON DELETE CASCADE,
		task_type TEXT NOT NULL,
		title TEXT NOT NULL,
		due_date INTEGER NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		previous_timestamp INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_plant ON calendar_tasks(plant_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_due ON calendar_tasks(due_date);

	CREATE TABLE IF NOT EXISTS diary_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		plant_id INTEGER NOT NULL REFERENCES plants(id) ON DELETE CASCADE,
		created_at INTEGER NOT NULL,
		content TEXT NOT NULL,
		linked_task_id INTEGER REFERENCES calendar_tasks(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_diary_plant ON diary_entries(plant_id);
	CREATE INDEX IF NOT EXISTS idx_diary_task ON diary_entries(linked_task_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
