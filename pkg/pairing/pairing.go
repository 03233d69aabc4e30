package pairing

import (
	"crypto/ed25519"
	"errors"

	"github.com/google/uuid"
)

// ErrInvalidPublicKey indicates key material that is not a well-formed
// Ed25519 public key.
var ErrInvalidPublicKey = errors.New("pairing: invalid Ed25519 public key")

// Pairing is a stored credential binding a controller identifier to its
// long-term public key (LTPK) and access level.
//
// The store owns the record; handlers borrow it for the duration of one
// operation only.
type Pairing struct {
	// ID is the controller's unique identifier.
	ID uuid.UUID

	// PublicKey is the controller's long-term Ed25519 public key.
	PublicKey [ed25519.PublicKeySize]byte

	// Permissions is the controller's access level.
	Permissions Permission
}

// New creates a pairing from raw key bytes.
// Returns ErrInvalidPublicKey unless the key is exactly 32 bytes.
func New(id uuid.UUID, ltpk []byte, permissions Permission) (*Pairing, error) {
	key, err := PublicKeyFromBytes(ltpk)
	if err != nil {
		return nil, err
	}
	return &Pairing{ID: id, PublicKey: key, Permissions: permissions}, nil
}

// PublicKeyFromBytes validates raw bytes as an Ed25519 public key.
func PublicKeyFromBytes(b []byte) ([ed25519.PublicKeySize]byte, error) {
	var key [ed25519.PublicKeySize]byte
	if len(b) != ed25519.PublicKeySize {
		return key, ErrInvalidPublicKey
	}
	copy(key[:], b)
	return key, nil
}
