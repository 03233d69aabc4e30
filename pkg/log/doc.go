// Package log defines the protocol event logging used across the accessory
// server: transport frames, decoded pairing exchanges and handler errors.
//
// Applications plug in a Logger implementation; the rest of the codebase
// only emits Events. NoopLogger disables logging, SlogAdapter bridges to
// log/slog for console output, and FileLogger persists a CBOR event stream
// for offline analysis.
package log
