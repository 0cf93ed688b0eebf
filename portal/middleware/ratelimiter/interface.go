package ratelimiter

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("ratelimiter: entry not found")

// Backend persists entries by key. Backends are not required to make
// read-modify-write sequences atomic; Storage serialises them.
type Backend interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry *Entry) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]*Entry, error)
	Clear(ctx context.Context) error
}

// ExpiringBackend is implemented by backends that expire keys natively.
// Storage passes the time left in the window, measured on its own clock.
type ExpiringBackend interface {
	SetWithTTL(ctx context.Context, key string, entry *Entry, ttl time.Duration) error
}
