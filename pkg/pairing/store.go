package pairing

import (
	"bytes"
	"errors"
	"sort"

	"github.com/google/uuid"
)

// Store errors.
var (
	// ErrPairingNotFound indicates no pairing exists for the identifier.
	ErrPairingNotFound = errors.New("pairing: not found")
)

// Store persists pairing records keyed by controller identifier.
// Implementations must be safe for concurrent access, and each operation
// must be individually atomic.
type Store interface {
	// Load returns the pairing for the given identifier.
	// Returns ErrPairingNotFound if no pairing exists.
	Load(id uuid.UUID) (*Pairing, error)

	// Save inserts or replaces a pairing.
	Save(p *Pairing) error

	// Delete removes the pairing for the given identifier.
	// Deleting an identifier that does not exist is not an error.
	Delete(id uuid.UUID) error

	// List returns all stored pairings.
	List() ([]*Pairing, error)

	// Count returns the number of stored pairings.
	Count() (int, error)
}

// sortPairings orders a pairing list by identifier so that List results
// are deterministic across implementations.
func sortPairings(list []*Pairing) {
	sort.Slice(list, func(i, j int) bool {
		return bytes.Compare(list[i].ID[:], list[j].ID[:]) < 0
	})
}
