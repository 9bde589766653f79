package session

import (
	"context"
	"sync"
)

// MemoryStore implements Store with an in-memory record. It is used by tests
// and by embedders that do not want credentials on disk.
type MemoryStore struct {
	mu  sync.RWMutex
	rec *Record
}

// NewMemoryStore creates an empty in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load retrieves the record. Returns nil, nil when absent.
func (s *MemoryStore) Load(_ context.Context) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.rec == nil {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for absent
	}
	cp := *s.rec
	return &cp, nil
}

// Save persists the record, replacing any previous one.
func (s *MemoryStore) Save(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.rec = &cp
	return nil
}

// Clear removes the record.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rec = nil
	return nil
}

// Verify interface compliance.
var _ Store = (*MemoryStore)(nil)
