package ratelimiter

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultSweepInterval = time.Minute

// Storage owns the limiter state. The mutex makes each check-and-increment
// atomic for this process; it does not coordinate separate instances that
// share a Redis or SQLite backend.
type Storage struct {
	mu            sync.Mutex
	backend       Backend
	sweepInterval time.Duration
	lastSweep     time.Time
	now           func() time.Time
	logger        *zap.Logger
}

type StorageOption func(*Storage)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) StorageOption {
	return func(s *Storage) {
		s.now = now
	}
}

func WithSweepInterval(interval time.Duration) StorageOption {
	return func(s *Storage) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

func WithLogger(logger *zap.Logger) StorageOption {
	return func(s *Storage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewStorage(backend Backend, opts ...StorageOption) *Storage {
	s := &Storage{
		backend:       backend,
		sweepInterval: DefaultSweepInterval,
		now:           time.Now,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastSweep = s.now()
	return s
}

func (s *Storage) Now() time.Time {
	return s.now()
}

// Hit counts one request for key and returns the entry after the increment.
// An expired entry is replaced by a fresh window starting at 1. Counting
// continues past the limit.
func (s *Storage) Hit(ctx context.Context, key string, window time.Duration) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.sweepInterval {
		s.lastSweep = now
		s.sweepLocked(ctx, now)
	}

	entry, err := s.backend.Get(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		entry = nil
	case err != nil:
		return Entry{}, err
	}

	if entry == nil || entry.Expired(now) {
		entry = &Entry{Count: 1, ResetTime: now.Add(window)}
	} else {
		entry.Count++
	}

	if err := s.set(ctx, key, entry, now); err != nil {
		return Entry{}, err
	}
	return *entry, nil
}

func (s *Storage) set(ctx context.Context, key string, entry *Entry, now time.Time) error {
	if eb, ok := s.backend.(ExpiringBackend); ok {
		return eb.SetWithTTL(ctx, key, entry, entry.ResetTime.Sub(now))
	}
	return s.backend.Set(ctx, key, entry)
}

// Entry returns the stored entry for key without counting.
func (s *Storage) Entry(ctx context.Context, key string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.Get(ctx, key)
}

func (s *Storage) List(ctx context.Context) (map[string]*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.List(ctx)
}

func (s *Storage) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.Delete(ctx, key)
}

func (s *Storage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.Clear(ctx)
}

// Sweep deletes every entry whose window has elapsed and returns how many
// were removed.
func (s *Storage) Sweep(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.lastSweep = now
	return s.sweepLocked(ctx, now)
}

func (s *Storage) sweepLocked(ctx context.Context, now time.Time) int {
	entries, err := s.backend.List(ctx)
	if err != nil {
		s.logger.Warn("rate limit sweep: list failed", zap.Error(err))
		return 0
	}

	removed := 0
	for key, entry := range entries {
		if !entry.Expired(now) {
			continue
		}
		if err := s.backend.Delete(ctx, key); err != nil {
			s.logger.Warn("rate limit sweep: delete failed", zap.String("key", key), zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Debug("rate limit sweep complete", zap.Int("removed", removed))
	}
	return removed
}

// StartCleanupWorker sweeps on a ticker until ctx is done. Hit already
// sweeps inline, so the worker is optional.
func (s *Storage) StartCleanupWorker(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			s.logger.Info("rate limit cleanup worker stopped")
			return
		}
	}
}
