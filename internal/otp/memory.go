package otp

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Store. Entries are lost on restart and
// expire lazily: callers check Entry.Expired.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]Entry
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[uuid.UUID]Entry)}
}

func (s *MemoryStore) Put(_ context.Context, accountID uuid.UUID, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[accountID] = e
	return nil
}

func (s *MemoryStore) Get(_ context.Context, accountID uuid.UUID) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[accountID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *MemoryStore) Delete(_ context.Context, accountID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, accountID)
	return nil
}

func (s *MemoryStore) DeleteIfCode(_ context.Context, accountID uuid.UUID, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[accountID]
	if !ok || e.Code != code {
		return false, nil
	}
	delete(s.entries, accountID)
	return true, nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
