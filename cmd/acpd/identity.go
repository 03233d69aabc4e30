package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// deviceIdentity is the accessory's long-term Ed25519 key pair. The device
// identifier advertised over mDNS is derived from the public key, so it is
// stable across restarts.
type deviceIdentity struct {
	public  ed25519.PublicKey
	private ed25519.PrivateKey
}

// loadOrCreateIdentity reads the key seed from path, generating and
// persisting a new one on first run.
func loadOrCreateIdentity(path string) (*deviceIdentity, error) {
	seed, err := os.ReadFile(path)
	if err == nil {
		if len(seed) != ed25519.SeedSize {
			return nil, fmt.Errorf("identity file %s is corrupt", path)
		}
		private := ed25519.NewKeyFromSeed(seed)
		return &deviceIdentity{
			public:  private.Public().(ed25519.PublicKey),
			private: private,
		}, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read identity file: %w", err)
	}

	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate identity key: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create identity directory: %w", err)
		}
	}
	if err := os.WriteFile(path, private.Seed(), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write identity file: %w", err)
	}

	return &deviceIdentity{public: public, private: private}, nil
}

// deviceID formats the leading public key bytes as the advertised
// identifier.
func (d *deviceIdentity) deviceID() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X",
		d.public[0], d.public[1], d.public[2], d.public[3], d.public[4], d.public[5])
}
