// Package database defines where form submissions end up.
package database

import (
	"context"
	"errors"
	"time"
)

var ErrDuplicate = errors.New("database: already exists")

type ContactMessage struct {
	ID        int64
	Name      string
	Email     string
	Subject   string
	Message   string
	Lang      string
	ClientIP  string
	CreatedAt time.Time
}

type Subscriber struct {
	Email     string
	Lang      string
	CreatedAt time.Time
}

// SubmissionRepository stores contact messages and newsletter sign-ups.
type SubmissionRepository interface {
	SaveContact(ctx context.Context, msg *ContactMessage) error
	// Subscribe returns ErrDuplicate when the email is already subscribed.
	Subscribe(ctx context.Context, sub *Subscriber) error
	CountContacts(ctx context.Context) (int, error)
	Close() error
}
