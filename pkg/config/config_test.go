package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	c, err := Parse([]byte(`pin: "31145928"`))
	require.NoError(t, err)

	assert.Equal(t, DefaultName, c.Name)
	assert.Equal(t, DefaultModel, c.Model)
	assert.Equal(t, DefaultPort, c.Port)
	assert.Equal(t, DefaultStoragePath, c.StoragePath)
	assert.Empty(t, c.LogPath)

	_, limited := c.MaxPeers()
	assert.False(t, limited)
}

func TestParseFullConfig(t *testing.T) {
	yaml := `
name: Kitchen Bridge
model: bridge-2
port: 9123
pin: "52897431"
max_peers: 16
storage_path: /var/lib/acp/state.cbor
log_path: /var/log/acp/messages.cbor
`
	c, err := Parse([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, "Kitchen Bridge", c.Name)
	assert.Equal(t, "bridge-2", c.Model)
	assert.Equal(t, 9123, c.Port)
	assert.Equal(t, "52897431", c.Pin)
	assert.Equal(t, "/var/lib/acp/state.cbor", c.StoragePath)
	assert.Equal(t, "/var/log/acp/messages.cbor", c.LogPath)

	max, limited := c.MaxPeers()
	assert.True(t, limited)
	assert.Equal(t, 16, max)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "not yaml", yaml: `{{{`},
		{name: "missing pin", yaml: `name: x`},
		{name: "pin too short", yaml: `pin: "1234"`},
		{name: "pin with letters", yaml: `pin: "1234abcd"`},
		{name: "trivial pin repeated digit", yaml: `pin: "11111111"`},
		{name: "trivial pin ascending", yaml: `pin: "12345678"`},
		{name: "trivial pin descending", yaml: `pin: "87654321"`},
		{name: "port out of range", yaml: "pin: \"52897431\"\nport: 70000"},
		{name: "negative port", yaml: "pin: \"52897431\"\nport: -1"},
		{name: "zero max peers", yaml: "pin: \"52897431\"\nmax_peers: 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`pin: "52897431"`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "52897431", c.Pin)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
