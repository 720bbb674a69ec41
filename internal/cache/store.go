package cache

import (
	"context"
	"sync"
)

// Store is the pluggable key-value persistence behind the cache: opaque
// payloads keyed by Key. Entries are created on first successful execution
// and never mutated; a Put for an existing key keeps the first write.
type Store interface {
	Get(ctx context.Context, key Key) ([]byte, bool, error)
	Put(ctx context.Context, key Key, payload []byte) error
}

// MemoryStore is a process-local Store. Useful for single runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Key][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[Key][]byte)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key Key) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.entries[key]
	return payload, ok, nil
}

// Put implements Store. The first payload stored for a key wins.
func (s *MemoryStore) Put(_ context.Context, key Key, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[key]; exists {
		return nil
	}
	s.entries[key] = append([]byte(nil), payload...)
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
