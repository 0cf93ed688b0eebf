package ratelimiter

import (
	"context"
	"sync"
)

var _ Backend = (*MemoryBackend)(nil)

type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string]*Entry
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data: make(map[string]*Entry),
	}
}

func (mb *MemoryBackend) Get(_ context.Context, key string) (*Entry, error) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	entry, exists := mb.data[key]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *entry
	return &copied, nil
}

func (mb *MemoryBackend) Set(_ context.Context, key string, entry *Entry) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	copied := *entry
	mb.data[key] = &copied
	return nil
}

func (mb *MemoryBackend) Delete(_ context.Context, key string) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	delete(mb.data, key)
	return nil
}

func (mb *MemoryBackend) List(_ context.Context) (map[string]*Entry, error) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	// Copies, so callers can't mutate stored entries.
	out := make(map[string]*Entry, len(mb.data))
	for k, v := range mb.data {
		copied := *v
		out[k] = &copied
	}
	return out, nil
}

func (mb *MemoryBackend) Clear(_ context.Context) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	mb.data = make(map[string]*Entry)
	return nil
}

func (mb *MemoryBackend) Len() int {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	return len(mb.data)
}
