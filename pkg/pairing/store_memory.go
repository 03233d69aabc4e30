package pairing

import (
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of the Store interface.
// Useful for testing and accessories that don't need persistence.
type MemoryStore struct {
	mu       sync.RWMutex
	pairings map[uuid.UUID]Pairing
}

// NewMemoryStore creates a new in-memory pairing store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pairings: make(map[uuid.UUID]Pairing),
	}
}

// Load returns the pairing for the given identifier.
func (s *MemoryStore) Load(id uuid.UUID) (*Pairing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.pairings[id]
	if !exists {
		return nil, ErrPairingNotFound
	}
	return &p, nil
}

// Save inserts or replaces a pairing.
func (s *MemoryStore) Save(p *Pairing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pairings[p.ID] = *p
	return nil
}

// Delete removes the pairing for the given identifier.
// Missing identifiers are ignored.
func (s *MemoryStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pairings, id)
	return nil
}

// List returns all stored pairings ordered by identifier.
func (s *MemoryStore) List() ([]*Pairing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*Pairing, 0, len(s.pairings))
	for _, p := range s.pairings {
		p := p
		list = append(list, &p)
	}
	sortPairings(list)
	return list, nil
}

// Count returns the number of stored pairings.
func (s *MemoryStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pairings), nil
}

// Verify MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
