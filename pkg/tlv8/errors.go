package tlv8

import (
	"errors"
	"fmt"
)

// Codec errors.
var (
	// ErrTruncated indicates the input ended inside an item's declared value.
	ErrTruncated = errors.New("tlv8: truncated item")
)

// ErrorKind is a protocol-level error code carried in a TypeError item.
//
// The numeric values are fixed by the published ACP pairing protocol table.
type ErrorKind byte

const (
	// KindUnknown is a generic failure.
	KindUnknown ErrorKind = 0x01

	// KindAuthentication indicates the caller is not authenticated or not
	// authorized for the operation.
	KindAuthentication ErrorKind = 0x02

	// KindBackoff asks the caller to retry after the advertised delay.
	KindBackoff ErrorKind = 0x03

	// KindMaxPeers indicates the accessory cannot accept more pairings.
	KindMaxPeers ErrorKind = 0x04

	// KindMaxTries indicates too many failed setup attempts.
	KindMaxTries ErrorKind = 0x05

	// KindUnavailable indicates the accessory is temporarily unavailable.
	KindUnavailable ErrorKind = 0x06

	// KindBusy indicates another pairing exchange is in progress.
	KindBusy ErrorKind = 0x07
)

// String returns the error kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindUnknown:
		return "UNKNOWN"
	case KindAuthentication:
		return "AUTHENTICATION"
	case KindBackoff:
		return "BACKOFF"
	case KindMaxPeers:
		return "MAX_PEERS"
	case KindMaxTries:
		return "MAX_TRIES"
	case KindUnavailable:
		return "UNAVAILABLE"
	case KindBusy:
		return "BUSY"
	default:
		return "UNKNOWN"
	}
}

// ErrorContainer is a structured protocol error: the exchange step it was
// detected at and the error kind. It is returned to the client in place of
// a success container.
type ErrorContainer struct {
	Step byte
	Kind ErrorKind
}

// NewErrorContainer creates an error container for the given step and kind.
func NewErrorContainer(step byte, kind ErrorKind) *ErrorContainer {
	return &ErrorContainer{Step: step, Kind: kind}
}

// Container returns the TLV container encoding of the error.
func (e *ErrorContainer) Container() Container {
	return Container{State(e.Step), ErrorItem(e.Kind)}
}

// Encode returns the wire bytes of the error container.
func (e *ErrorContainer) Encode() []byte {
	return Encode(e.Container())
}

// Error implements the error interface.
func (e *ErrorContainer) Error() string {
	return fmt.Sprintf("tlv8: %s at step %d", e.Kind, e.Step)
}
