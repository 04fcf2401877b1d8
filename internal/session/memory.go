package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and tools.
type MemoryStore struct {
	mu     sync.Mutex
	now    func() time.Time
	values map[Key]memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero = no expiry
}

// NewMemoryStore returns an empty store. now may be nil.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{now: now, values: make(map[Key]memoryEntry)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key Key) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.values, key)
		return "", ErrNotFound
	}
	return e.value, nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, key Key, value string, opts Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{value: value}
	if opts.TTL > 0 {
		e.expiresAt = m.now().Add(opts.TTL)
	}
	m.values[key] = e
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

// ExpiresAt reports when key expires. The second result is false if key is
// absent or has no expiry.
func (m *MemoryStore) ExpiresAt(key Key) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.values[key]
	if !ok || e.expiresAt.IsZero() {
		return time.Time{}, false
	}
	return e.expiresAt, true
}

// Len returns the number of stored values, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}
