// Package session tracks the per-connection security state of the accessory
// server.
//
// A Session starts unauthenticated. Once the verify exchange completes, the
// transport marks it with the controller's identifier and upgrades the
// connection to an encrypted Channel. Session satisfies the caller contract
// the pairing-management handler authorizes against.
package session
