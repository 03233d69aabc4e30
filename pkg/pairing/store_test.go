package pairing

import (
	"crypto/ed25519"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPairing(t *testing.T, perm Permission) *Pairing {
	t.Helper()
	ltpk := make([]byte, ed25519.PublicKeySize)
	for i := range ltpk {
		ltpk[i] = byte(i)
	}
	p, err := New(uuid.New(), ltpk, perm)
	require.NoError(t, err)
	return p
}

func TestNewRejectsShortKey(t *testing.T) {
	_, err := New(uuid.New(), []byte{1, 2, 3}, PermissionUser)
	assert.ErrorIs(t, err, ErrInvalidPublicKey)
}

// runStoreTests exercises the Store contract against any implementation.
func runStoreTests(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("LoadMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Load(uuid.New())
		assert.ErrorIs(t, err, ErrPairingNotFound)
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		s := newStore(t)
		p := testPairing(t, PermissionAdmin)
		require.NoError(t, s.Save(p))

		got, err := s.Load(p.ID)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	})

	t.Run("SaveReplacesExisting", func(t *testing.T) {
		s := newStore(t)
		p := testPairing(t, PermissionUser)
		require.NoError(t, s.Save(p))

		p.Permissions = PermissionAdmin
		require.NoError(t, s.Save(p))

		got, err := s.Load(p.ID)
		require.NoError(t, err)
		assert.Equal(t, PermissionAdmin, got.Permissions)

		n, err := s.Count()
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		s := newStore(t)
		p := testPairing(t, PermissionUser)
		require.NoError(t, s.Save(p))

		require.NoError(t, s.Delete(p.ID))
		require.NoError(t, s.Delete(p.ID))
		require.NoError(t, s.Delete(uuid.New()))

		_, err := s.Load(p.ID)
		assert.ErrorIs(t, err, ErrPairingNotFound)
	})

	t.Run("ListAndCount", func(t *testing.T) {
		s := newStore(t)
		for i := 0; i < 3; i++ {
			require.NoError(t, s.Save(testPairing(t, PermissionUser)))
		}

		list, err := s.List()
		require.NoError(t, err)
		assert.Len(t, list, 3)

		n, err := s.Count()
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("LoadReturnsCopy", func(t *testing.T) {
		s := newStore(t)
		p := testPairing(t, PermissionUser)
		require.NoError(t, s.Save(p))

		got, err := s.Load(p.ID)
		require.NoError(t, err)
		got.Permissions = PermissionAdmin

		again, err := s.Load(p.ID)
		require.NoError(t, err)
		assert.Equal(t, PermissionUser, again.Permissions)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestFileStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store {
		s, err := NewFileStore(filepath.Join(t.TempDir(), "pairings.cbor"))
		require.NoError(t, err)
		return s
	})
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairings.cbor")

	s, err := NewFileStore(path)
	require.NoError(t, err)

	p := testPairing(t, PermissionAdmin)
	require.NoError(t, s.Save(p))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	got, err := reopened.Load(p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	n, err := reopened.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "nope", "pairings.cbor"))
	require.NoError(t, err)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
