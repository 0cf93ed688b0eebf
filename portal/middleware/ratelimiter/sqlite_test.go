package ratelimiter

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestSQLiteBackend(t *testing.T) *SQLiteBackend {
	t.Helper()
	b, err := NewSQLiteBackend(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestSQLiteBackend_SetAndGet(t *testing.T) {
	b := newTestSQLiteBackend(t)
	ctx := context.Background()
	resetTime := time.Date(2026, 3, 14, 10, 5, 0, 0, time.UTC)

	if err := b.Set(ctx, "k", &Entry{Count: 2, ResetTime: resetTime}); err != nil {
		t.Fatal(err)
	}
	// upsert
	if err := b.Set(ctx, "k", &Entry{Count: 3, ResetTime: resetTime}); err != nil {
		t.Fatal(err)
	}

	entry, err := b.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Count != 3 {
		t.Errorf("count: got %d, want 3", entry.Count)
	}
	if !entry.ResetTime.Equal(resetTime) {
		t.Errorf("reset time: got %v, want %v", entry.ResetTime, resetTime)
	}
}

func TestSQLiteBackend_GetMissing(t *testing.T) {
	b := newTestSQLiteBackend(t)

	if _, err := b.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestSQLiteBackend_DeleteListClear(t *testing.T) {
	b := newTestSQLiteBackend(t)
	ctx := context.Background()
	now := time.Now()

	_ = b.Set(ctx, "a", &Entry{Count: 1, ResetTime: now})
	_ = b.Set(ctx, "b", &Entry{Count: 1, ResetTime: now})
	_ = b.Set(ctx, "c", &Entry{Count: 1, ResetTime: now})

	if err := b.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	list, err := b.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Errorf("list: got %d entries, want 2", len(list))
	}

	if err := b.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	list, _ = b.List(ctx)
	if len(list) != 0 {
		t.Errorf("after clear: got %d entries, want 0", len(list))
	}
}

func TestSQLiteBackend_FixedWindowThroughStorage(t *testing.T) {
	b := newTestSQLiteBackend(t)
	clock := newFakeClock()
	storage := NewStorage(b, WithClock(clock.Now))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = storage.Hit(ctx, "k", time.Minute)
	}
	clock.Advance(time.Minute)

	entry, err := storage.Hit(ctx, "k", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Count != 1 {
		t.Errorf("after rollover: got %d, want 1", entry.Count)
	}
}
