package ratelimiter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var _ Backend = (*SQLiteBackend)(nil)

// SQLiteBackend keeps entries in a single table so counters survive restarts.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (or creates) the database at dsn. Use ":memory:"
// for a throwaway database.
func NewSQLiteBackend(dsn string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// :memory: databases are per-connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS rate_limit_entries (
			key      TEXT PRIMARY KEY,
			count    INTEGER NOT NULL DEFAULT 0,
			reset_at INTEGER NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create rate_limit_entries: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

func (sb *SQLiteBackend) Get(ctx context.Context, key string) (*Entry, error) {
	var count int
	var resetAt int64
	err := sb.db.QueryRowContext(ctx,
		`SELECT count, reset_at FROM rate_limit_entries WHERE key = ?`, key,
	).Scan(&count, &resetAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Entry{Count: count, ResetTime: time.Unix(0, resetAt)}, nil
}

func (sb *SQLiteBackend) Set(ctx context.Context, key string, entry *Entry) error {
	_, err := sb.db.ExecContext(ctx, `
		INSERT INTO rate_limit_entries (key, count, reset_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET count = excluded.count, reset_at = excluded.reset_at`,
		key, entry.Count, entry.ResetTime.UnixNano(),
	)
	return err
}

func (sb *SQLiteBackend) Delete(ctx context.Context, key string) error {
	_, err := sb.db.ExecContext(ctx, `DELETE FROM rate_limit_entries WHERE key = ?`, key)
	return err
}

func (sb *SQLiteBackend) List(ctx context.Context) (map[string]*Entry, error) {
	rows, err := sb.db.QueryContext(ctx, `SELECT key, count, reset_at FROM rate_limit_entries`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*Entry)
	for rows.Next() {
		var key string
		var count int
		var resetAt int64
		if err := rows.Scan(&key, &count, &resetAt); err != nil {
			return nil, err
		}
		out[key] = &Entry{Count: count, ResetTime: time.Unix(0, resetAt)}
	}
	return out, rows.Err()
}

func (sb *SQLiteBackend) Clear(ctx context.Context) error {
	_, err := sb.db.ExecContext(ctx, `DELETE FROM rate_limit_entries`)
	return err
}

func (sb *SQLiteBackend) Close() error {
	return sb.db.Close()
}
