package journal

import (
	"context"
	"sync"
)

const defaultMemoryCapacity = 512

// MemoryStore keeps the most recent entries in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int
	entries  []Entry
}

// NewMemoryStore creates a store holding at most capacity entries.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &MemoryStore{capacity: capacity}
}

// Record prepends the entry and drops the oldest one when full.
func (m *MemoryStore) Record(_ context.Context, entry Entry) error {
	entry = prepare(entry)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]Entry{entry}, m.entries...)
	if len(m.entries) > m.capacity {
		m.entries = m.entries[:m.capacity]
	}
	return nil
}

// Latest returns up to limit entries, newest first. A non-positive limit
// returns everything.
func (m *MemoryStore) Latest(_ context.Context, limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.entries) {
		limit = len(m.entries)
	}
	out := make([]Entry, limit)
	copy(out, m.entries[:limit])
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
