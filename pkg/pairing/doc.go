// Package pairing defines the long-term credentials that grant controllers
// access to an accessory, and the stores that persist them.
//
// A pairing binds a controller identifier (UUID) to its long-term Ed25519
// public key and an access level. Admin controllers may manage other
// pairings; regular controllers may not.
package pairing
