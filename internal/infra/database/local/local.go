package local

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hkd-kulturverein/website/internal/infra/database"
)

var _ database.SubmissionRepository = (*DataSource)(nil)

// DataSource keeps submissions in memory. Used in development and tests.
type DataSource struct {
	mu          sync.RWMutex
	nextID      int64
	contacts    []database.ContactMessage
	subscribers map[string]database.Subscriber
	now         func() time.Time
}

func InitDataSource() *DataSource {
	return &DataSource{
		subscribers: make(map[string]database.Subscriber),
		now:         time.Now,
	}
}

func (ds *DataSource) SaveContact(_ context.Context, msg *database.ContactMessage) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.nextID++
	msg.ID = ds.nextID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = ds.now()
	}
	ds.contacts = append(ds.contacts, *msg)
	return nil
}

func (ds *DataSource) Subscribe(_ context.Context, sub *database.Subscriber) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	key := strings.ToLower(sub.Email)
	if _, exists := ds.subscribers[key]; exists {
		return database.ErrDuplicate
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = ds.now()
	}
	ds.subscribers[key] = *sub
	return nil
}

func (ds *DataSource) CountContacts(_ context.Context) (int, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	return len(ds.contacts), nil
}

// Contacts returns a copy of the stored messages, oldest first.
func (ds *DataSource) Contacts() []database.ContactMessage {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	out := make([]database.ContactMessage, len(ds.contacts))
	copy(out, ds.contacts)
	return out
}

func (ds *DataSource) Subscribers() map[string]database.Subscriber {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	out := make(map[string]database.Subscriber, len(ds.subscribers))
	for k, v := range ds.subscribers {
		out[k] = v
	}
	return out
}

func (ds *DataSource) ResetData() {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.nextID = 0
	ds.contacts = nil
	ds.subscribers = make(map[string]database.Subscriber)
}

func (ds *DataSource) Close() error {
	return nil
}
