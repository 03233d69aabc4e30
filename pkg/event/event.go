package event

import "github.com/google/uuid"

// Event is a pairing-lifecycle notification.
type Event interface {
	// Name returns the event name for logging.
	Name() string
}

// ControllerPaired is emitted after a pairing was added or its permissions
// were updated.
type ControllerPaired struct {
	// ID is the paired controller's identifier.
	ID uuid.UUID
}

// Name returns the event name.
func (ControllerPaired) Name() string { return "CONTROLLER_PAIRED" }

// ControllerUnpaired is emitted after a pairing was removed.
// It is emitted even when the identifier was not present (removal is
// idempotent by contract).
type ControllerUnpaired struct {
	// ID is the unpaired controller's identifier.
	ID uuid.UUID
}

// Name returns the event name.
func (ControllerUnpaired) Name() string { return "CONTROLLER_UNPAIRED" }

// PairingsChanged is a summary notification carrying the new pairing count.
// Tooling that does not care which controller changed subscribes to this
// instead of the per-controller events.
type PairingsChanged struct {
	// Count is the number of stored pairings after the change.
	Count int
}

// Name returns the event name.
func (PairingsChanged) Name() string { return "PAIRINGS_CHANGED" }
