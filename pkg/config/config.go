package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Parse for omitted fields.
const (
	DefaultName        = "ACP Accessory"
	DefaultModel       = "acp-go"
	DefaultPort        = 8473
	DefaultStoragePath = "acp-state.cbor"
)

// pinPattern is the required setup-pin shape: exactly eight digits.
var pinPattern = regexp.MustCompile(`^\d{8}$`)

// trivialPins are sequences controllers refuse to accept.
var trivialPins = map[string]struct{}{
	"00000000": {},
	"11111111": {},
	"22222222": {},
	"33333333": {},
	"44444444": {},
	"55555555": {},
	"66666666": {},
	"77777777": {},
	"88888888": {},
	"99999999": {},
	"12345678": {},
	"87654321": {},
}

// Config holds the accessory's static configuration.
type Config struct {
	// Name is the human-readable accessory name, advertised over mDNS.
	Name string `yaml:"name"`

	// Model is the device model identifier.
	Model string `yaml:"model"`

	// Port is the TCP port the accessory server listens on.
	Port int `yaml:"port"`

	// Pin is the eight-digit setup code used during pair-setup.
	Pin string `yaml:"pin"`

	// MaxPeersLimit caps the number of stored pairings. Nil means
	// unlimited.
	MaxPeersLimit *int `yaml:"max_peers"`

	// StoragePath is the pairing store file location.
	StoragePath string `yaml:"storage_path"`

	// LogPath, when set, enables the protocol message log.
	LogPath string `yaml:"log_path"`
}

// MaxPeers returns the pairing capacity limit, or false if unlimited.
func (c *Config) MaxPeers() (int, bool) {
	if c.MaxPeersLimit == nil {
		return 0, false
	}
	return *c.MaxPeersLimit, true
}

// Parse parses a configuration from YAML bytes, applies defaults and
// validates the result.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.StoragePath == "" {
		c.StoragePath = DefaultStoragePath
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load loads a configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Pin == "" {
		return fmt.Errorf("pin is required")
	}
	if !pinPattern.MatchString(c.Pin) {
		return fmt.Errorf("pin must be exactly eight digits")
	}
	if _, trivial := trivialPins[c.Pin]; trivial {
		return fmt.Errorf("pin %q is too easy to guess", c.Pin)
	}
	if c.MaxPeersLimit != nil && *c.MaxPeersLimit < 1 {
		return fmt.Errorf("max_peers must be at least 1")
	}
	return nil
}
