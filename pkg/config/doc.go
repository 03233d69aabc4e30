// Package config loads and validates the accessory server's YAML
// configuration.
//
// Parse applies defaults for omitted fields and rejects invalid setup pins,
// so a *Config in hand is always usable. Config implements the
// service.ConfigAccessor contract through its MaxPeers method.
package config
