// Package event publishes pairing-lifecycle notifications to interested
// components (discovery advertising, logging, application callbacks).
//
// Emission is synchronous fan-out: Emit returns once every subscriber has
// run. Callers must never emit while holding the pairing store's exclusive
// access, since a subscriber may re-enter the store.
package event
