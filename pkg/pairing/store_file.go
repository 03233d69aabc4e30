package pairing

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// fileVersion is the current version of the pairing file format.
const fileVersion = 1

// fileState is the on-disk representation of the pairing set.
// CBOR encoding uses integer keys for compactness.
type fileState struct {
	Version int          `cbor:"1,keyasint"`
	SavedAt time.Time    `cbor:"2,keyasint"`
	Records []fileRecord `cbor:"3,keyasint,omitempty"`
}

// fileRecord is the on-disk representation of one pairing.
type fileRecord struct {
	ID          string `cbor:"1,keyasint"`
	PublicKey   []byte `cbor:"2,keyasint"`
	Permissions byte   `cbor:"3,keyasint"`
}

// FileStore persists pairings to a single CBOR file.
// Every mutation rewrites the file; reads are served from memory.
type FileStore struct {
	mu   sync.RWMutex
	path string
	mem  map[uuid.UUID]Pairing
}

// NewFileStore opens (or creates) a pairing store backed by the given file.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		mem:  make(map[uuid.UUID]Pairing),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load reads the backing file into memory.
// A missing file is an empty store.
func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var state fileState
	if err := cbor.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("pairing: corrupt store file %s: %w", s.path, err)
	}

	for _, rec := range state.Records {
		id, err := uuid.Parse(rec.ID)
		if err != nil {
			return fmt.Errorf("pairing: corrupt record id %q: %w", rec.ID, err)
		}
		key, err := PublicKeyFromBytes(rec.PublicKey)
		if err != nil {
			return fmt.Errorf("pairing: corrupt record key for %s: %w", rec.ID, err)
		}
		perm, err := PermissionFromByte(rec.Permissions)
		if err != nil {
			return fmt.Errorf("pairing: corrupt record permissions for %s: %w", rec.ID, err)
		}
		s.mem[id] = Pairing{ID: id, PublicKey: key, Permissions: perm}
	}
	return nil
}

// flush writes the in-memory set to disk. Caller must hold s.mu.
func (s *FileStore) flush() error {
	state := fileState{
		Version: fileVersion,
		SavedAt: time.Now(),
		Records: make([]fileRecord, 0, len(s.mem)),
	}
	for _, p := range s.mem {
		state.Records = append(state.Records, fileRecord{
			ID:          p.ID.String(),
			PublicKey:   p.PublicKey[:],
			Permissions: p.Permissions.Byte(),
		})
	}

	data, err := cbor.Marshal(state)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

// Load returns the pairing for the given identifier.
func (s *FileStore) Load(id uuid.UUID) (*Pairing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.mem[id]
	if !exists {
		return nil, ErrPairingNotFound
	}
	return &p, nil
}

// Save inserts or replaces a pairing and rewrites the backing file.
func (s *FileStore) Save(p *Pairing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mem[p.ID] = *p
	return s.flush()
}

// Delete removes the pairing for the given identifier.
// Missing identifiers are ignored.
func (s *FileStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.mem[id]; !exists {
		return nil
	}
	delete(s.mem, id)
	return s.flush()
}

// List returns all stored pairings ordered by identifier.
func (s *FileStore) List() ([]*Pairing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*Pairing, 0, len(s.mem))
	for _, p := range s.mem {
		p := p
		list = append(list, &p)
	}
	sortPairings(list)
	return list, nil
}

// Count returns the number of stored pairings.
func (s *FileStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mem), nil
}

// Verify FileStore implements Store.
var _ Store = (*FileStore)(nil)
