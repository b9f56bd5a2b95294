package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound = errors.New("not found")
)

// Storage handles all database operations
type Storage struct {
	db *sql.DB
}

// New creates a new Storage instance and initializes the database.
// Transactions start with BEGIN IMMEDIATE so read-modify-write on a user row is serialized.
func New(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate&_synchronous=FULL")
	if err != nil {
		return nil, err
	}

	s := &Storage{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			premium_until INTEGER,
			token_expires_at INTEGER,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_premium_until ON users(premium_until)`,

		`CREATE TABLE IF NOT EXISTS token_links (
			user_id INTEGER PRIMARY KEY,
			issued_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS channels (
			channel_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			is_special INTEGER NOT NULL DEFAULT 0,
			is_required INTEGER NOT NULL DEFAULT 0,
			added_by INTEGER NOT NULL DEFAULT 0,
			added_on INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS videos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			file_id TEXT NOT NULL,
			short_url TEXT NOT NULL DEFAULT '',
			source_channel_id INTEGER NOT NULL DEFAULT 0,
			source_message_id INTEGER NOT NULL DEFAULT 0,
			added_by INTEGER NOT NULL DEFAULT 0,
			added_on INTEGER NOT NULL,
			url_created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_source ON videos(source_channel_id, source_message_id)`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

func unixOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func timeFromNull(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0)
	return &t
}
