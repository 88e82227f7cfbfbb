// Package storage provides ports.CacheStore implementations backed by
// process memory, Redis, and SQLite. The detection cache middleware
// writes opaque byte payloads; these stores hold them without knowing
// what they contain.
package storage

import (
	"context"
	"sync"
	"time"

	"github.com/ahrav/go-vigil/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.CacheStore = (*MemoryStore)(nil)

// memoryEntry is one stored value with its expiry. A zero expiry means
// the entry never expires.
type memoryEntry struct {
	value     any
	expiresAt time.Time
}

// MemoryStore is an in-process cache store. Expired entries are dropped
// lazily on read, so memory is bounded by the working set of keys, not
// by time. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry)}
}

// Get retrieves a cached value by key.
func (s *MemoryStore) Get(_ context.Context, key string) (any, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock; Set may have replaced the entry.
		if current, stillThere := s.entries[key]; stillThere && current == e {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores a value with an expiration time. A zero duration stores
// the value without expiry.
func (s *MemoryStore) Set(_ context.Context, key string, value any, expiration time.Duration) error {
	e := &memoryEntry{value: value}
	if expiration > 0 {
		e.expiresAt = time.Now().Add(expiration)
	}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

// Delete removes a value from the cache.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Clear removes all values from the cache.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]*memoryEntry)
	s.mu.Unlock()
	return nil
}

// Len returns the number of entries currently held, including entries
// that have expired but not yet been dropped.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
