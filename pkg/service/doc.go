// Package service implements the pairing-management endpoint of the ACP
// protocol.
//
// The package sits between the transport (which delivers complete request
// bodies and knows who the authenticated caller is) and the credential store.
// A request is one TLV8 container carrying a state marker, a method code and
// the method's fields; the response is one TLV8 container carrying either the
// success state marker or an error item.
//
// # Pairings
//
// Pairings is the request handler. It supports three methods:
//
//   - AddPairing: register a new controller, or update the permissions of an
//     existing one when the supplied key matches the stored key.
//   - RemovePairing: delete a controller's pairing. Removal is idempotent.
//   - ListPairings: enumerate all stored pairings.
//
// Every method requires the caller to be an admin controller. Failures never
// surface as Go errors to the transport: they are encoded as error containers
// and travel in the response body.
//
// Example usage:
//
//	store := pairing.NewMemoryStore()
//	emitter := event.NewEmitter()
//	handler := service.NewPairings(store, emitter, cfg)
//
//	response := handler.HandleRequest(body, session)
package service
