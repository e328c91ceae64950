package score

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `CREATE TABLE IF NOT EXISTS high_scores (
	config     TEXT PRIMARY KEY,
	score      INTEGER NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// SQLiteStore keeps high scores in a SQLite database
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) the database at path and applies the schema
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create high_scores: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// openDB opens SQLite with a busy timeout and WAL journaling
func openDB(dsn string) (*sql.DB, error) {
	// Ensure directory exists for ./data/scores.db, etc.
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}
	return db, nil
}

// Get returns the stored score for key, 0 when there is none
func (s *SQLiteStore) Get(ctx context.Context, key string) (int, error) {
	if key == "" {
		return 0, ErrEmptyKey
	}

	var score int
	err := s.db.QueryRowContext(ctx, `SELECT score FROM high_scores WHERE config = ?`, key).Scan(&score)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select high score %s: %w", key, err)
	}
	return score, nil
}

// Put stores score for key if it beats the current record
func (s *SQLiteStore) Put(ctx context.Context, key string, score int) error {
	if key == "" {
		return ErrEmptyKey
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO high_scores (config, score, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(config) DO UPDATE SET score = excluded.score, updated_at = excluded.updated_at
		WHERE excluded.score > high_scores.score`, key, score)
	if err != nil {
		return fmt.Errorf("upsert high score %s: %w", key, err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
