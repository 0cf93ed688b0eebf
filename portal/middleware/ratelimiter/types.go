package ratelimiter

import (
	"net/http"
	"time"
)

// Entry is the counter tracked for one client/route key.
type Entry struct {
	Count     int       `json:"count"`
	ResetTime time.Time `json:"reset_time"`
}

// Expired reports whether the entry's window has elapsed at now.
func (e *Entry) Expired(now time.Time) bool {
	return !now.Before(e.ResetTime)
}

type Config struct {
	Limit  int
	Window time.Duration

	// IdentifierFunc overrides DefaultIdentifier when set.
	IdentifierFunc func(r *http.Request) string
	// SkipFunc bypasses the limiter for a request when it returns true.
	SkipFunc func(r *http.Request) bool

	// Message is written in the 429 body. MessageFunc wins over it when set.
	Message     string
	MessageFunc func(r *http.Request) string
}

func NewConfig(limit int, window time.Duration) Config {
	return Config{
		Limit:  limit,
		Window: window,
	}
}

// Result is the outcome of a single Check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAt is the zero time when the request was skipped.
	ResetAt time.Time
}
