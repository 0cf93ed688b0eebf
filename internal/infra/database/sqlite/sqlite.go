package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/hkd-kulturverein/website/internal/infra/database"
)

var _ database.SubmissionRepository = (*Repository)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS contact_messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	subject    TEXT NOT NULL DEFAULT '',
	message    TEXT NOT NULL,
	lang       TEXT NOT NULL DEFAULT '',
	client_ip  TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS newsletter_subscribers (
	email      TEXT PRIMARY KEY COLLATE NOCASE,
	lang       TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);`

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the submissions database. Use ":memory:" in tests.
func Open(dsn string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate submissions schema: %w", err)
	}
	return &Repository{db: db, now: time.Now}, nil
}

func (r *Repository) SaveContact(ctx context.Context, msg *database.ContactMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = r.now()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO contact_messages (name, email, subject, message, lang, client_ip, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.Name, msg.Email, msg.Subject, msg.Message, msg.Lang, msg.ClientIP, msg.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("contact message id: %w", err)
	}
	msg.ID = id
	return nil
}

func (r *Repository) Subscribe(ctx context.Context, sub *database.Subscriber) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = r.now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO newsletter_subscribers (email, lang, created_at) VALUES (?, ?, ?)`,
		strings.ToLower(sub.Email), sub.Lang, sub.CreatedAt.Unix(),
	)
	if isUniqueViolation(err) {
		return database.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert subscriber: %w", err)
	}
	return nil
}

func (r *Repository) CountContacts(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contact_messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count contact messages: %w", err)
	}
	return n, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
