package session

import (
	"sync"

	"github.com/google/uuid"
)

// Session holds the security state of one controller connection.
//
// It is safe for concurrent use: request handlers read the controller
// identity while the transport goroutine may be tearing the session down.
type Session struct {
	mu sync.RWMutex

	controllerID  uuid.UUID
	authenticated bool

	remoteAddr string
}

// New creates an unauthenticated session for the given remote address.
func New(remoteAddr string) *Session {
	return &Session{remoteAddr: remoteAddr}
}

// RemoteAddr returns the connection's remote address.
func (s *Session) RemoteAddr() string {
	return s.remoteAddr
}

// Authenticate records the verified controller identity. It is called by
// the transport once the verify exchange has proven possession of the
// controller's long-term key.
func (s *Session) Authenticate(controllerID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controllerID = controllerID
	s.authenticated = true
}

// ControllerID returns the verified controller identifier, or false if the
// session has not completed the verify exchange.
func (s *Session) ControllerID() (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticated {
		return uuid.UUID{}, false
	}
	return s.controllerID, true
}

// Reset clears the security state, returning the session to its
// unauthenticated form.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controllerID = uuid.UUID{}
	s.authenticated = false
}
