package service

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/acp-protocol/acp-go/pkg/event"
	"github.com/acp-protocol/acp-go/pkg/log"
	"github.com/acp-protocol/acp-go/pkg/pairing"
	"github.com/acp-protocol/acp-go/pkg/tlv8"
)

// Exchange step numbers reported in error containers.
const (
	// StepUnknown is used for failures before a method was identified.
	StepUnknown byte = 0

	// StepResponse (M2) is used once a method was identified.
	StepResponse byte = 2
)

// stateM1 is the request state value of the single-round exchange.
const stateM1 byte = 1

// Op is a decoded pairing-management operation. It exists only for the
// lifetime of one request and is never re-interpreted after Parse.
type Op interface {
	method() byte
}

// AddOp adds a pairing or updates the permissions of an existing one.
type AddOp struct {
	// PairingID is the raw identifier bytes (UTF-8 UUID text).
	PairingID []byte

	// LTPK is the controller's long-term public key bytes.
	LTPK []byte

	// Permissions is the requested access level.
	Permissions pairing.Permission
}

func (AddOp) method() byte { return tlv8.MethodAddPairing }

// RemoveOp removes a pairing.
type RemoveOp struct {
	// PairingID is the raw identifier bytes (UTF-8 UUID text).
	PairingID []byte
}

func (RemoveOp) method() byte { return tlv8.MethodRemovePairing }

// ListOp lists all pairings.
type ListOp struct{}

func (ListOp) method() byte { return tlv8.MethodListPairings }

// Caller exposes the identity of the currently-authenticated controller,
// established by the prior session handshake. Implementations must support
// atomic reads.
type Caller interface {
	// ControllerID returns the caller's identifier, or false if the
	// session is not authenticated.
	ControllerID() (uuid.UUID, bool)
}

// ConfigAccessor exposes the optional maximum-peer limit.
type ConfigAccessor interface {
	// MaxPeers returns the pairing capacity limit, or false if unlimited.
	MaxPeers() (int, bool)
}

// Pairings is the pairing-management request handler.
//
// It decodes one TLV request into a typed operation, authorizes it against
// the credential store, executes it, emits lifecycle events and encodes the
// response. Any number of requests may be handled concurrently; store access
// is serialized, and the store is never held while the emitter runs.
type Pairings struct {
	// storeMu serializes store access for the read/write sequence of one
	// operation, so concurrent requests observe a sequentially consistent
	// credential set.
	storeMu sync.Mutex

	store   pairing.Store
	emitter *event.Emitter
	config  ConfigAccessor
	logger  log.Logger
}

// NewPairings creates a pairings handler.
func NewPairings(store pairing.Store, emitter *event.Emitter, config ConfigAccessor) *Pairings {
	return &Pairings{
		store:   store,
		emitter: emitter,
		config:  config,
		logger:  log.NoopLogger{},
	}
}

// SetLogger configures protocol event logging. Pass nil to disable.
func (h *Pairings) SetLogger(logger log.Logger) {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	h.logger = logger
}

// Parse decodes a complete request body into a typed operation.
// It has no side effects and performs no authorization. The body must be
// fully buffered: the codec cannot process partial fragments.
func (h *Pairings) Parse(body []byte) (Op, *tlv8.ErrorContainer) {
	decoded, err := tlv8.Decode(body)
	if err != nil {
		return nil, tlv8.NewErrorContainer(StepUnknown, tlv8.KindUnknown)
	}

	if !bytes.Equal(decoded[byte(tlv8.TypeState)], []byte{stateM1}) {
		return nil, tlv8.NewErrorContainer(StepUnknown, tlv8.KindUnknown)
	}

	method, ok := decoded[byte(tlv8.TypeMethod)]
	if !ok || len(method) != 1 {
		return nil, tlv8.NewErrorContainer(StepUnknown, tlv8.KindUnknown)
	}

	switch method[0] {
	case tlv8.MethodAddPairing:
		pairingID, ok := decoded[byte(tlv8.TypeIdentifier)]
		if !ok {
			return nil, tlv8.NewErrorContainer(StepResponse, tlv8.KindUnknown)
		}
		ltpk, ok := decoded[byte(tlv8.TypePublicKey)]
		if !ok {
			return nil, tlv8.NewErrorContainer(StepResponse, tlv8.KindUnknown)
		}
		perms, ok := decoded[byte(tlv8.TypePermissions)]
		if !ok || len(perms) != 1 {
			return nil, tlv8.NewErrorContainer(StepResponse, tlv8.KindUnknown)
		}
		permissions, err := pairing.PermissionFromByte(perms[0])
		if err != nil {
			return nil, tlv8.NewErrorContainer(StepResponse, tlv8.KindUnknown)
		}
		return AddOp{PairingID: pairingID, LTPK: ltpk, Permissions: permissions}, nil

	case tlv8.MethodRemovePairing:
		pairingID, ok := decoded[byte(tlv8.TypeIdentifier)]
		if !ok {
			return nil, tlv8.NewErrorContainer(StepResponse, tlv8.KindUnknown)
		}
		return RemoveOp{PairingID: pairingID}, nil

	case tlv8.MethodListPairings:
		return ListOp{}, nil

	default:
		return nil, tlv8.NewErrorContainer(StepUnknown, tlv8.KindUnknown)
	}
}

// Handle authorizes and executes a parsed operation on behalf of the caller
// and returns the success container, or a structured error container.
func (h *Pairings) Handle(op Op, caller Caller) (tlv8.Container, *tlv8.ErrorContainer) {
	var res tlv8.Container
	var err error

	switch op := op.(type) {
	case AddOp:
		res, err = h.handleAdd(op, caller)
	case RemoveOp:
		res, err = h.handleRemove(op, caller)
	case ListOp:
		res, err = h.handleList(caller)
	default:
		return nil, tlv8.NewErrorContainer(StepUnknown, tlv8.KindUnknown)
	}

	if err != nil {
		kind := errorKind(err)
		h.logError(caller, err, kind)
		return nil, tlv8.NewErrorContainer(StepResponse, kind)
	}
	return res, nil
}

// HandleRequest parses and handles a complete request body, returning the
// encoded response bytes. Protocol failures are returned as encoded error
// containers, never as Go errors: the transport always answers with a
// success status and the error travels in the body.
func (h *Pairings) HandleRequest(body []byte, caller Caller) []byte {
	op, ec := h.Parse(body)
	if ec != nil {
		h.logger.Log(log.Event{
			Timestamp: time.Now(),
			Direction: log.DirectionIn,
			Layer:     log.LayerWire,
			Category:  log.CategoryError,
			Error: &log.ErrorData{
				Layer:   log.LayerWire,
				Message: "malformed pairing request",
				Step:    ec.Step,
				Code:    byte(ec.Kind),
			},
		})
		return ec.Encode()
	}

	h.logMessage(caller, log.DirectionIn, fmt.Sprintf("M1: pairing request method=%d", op.method()))

	res, ec := h.Handle(op, caller)
	if ec != nil {
		return ec.Encode()
	}

	h.logMessage(caller, log.DirectionOut, "M2: pairing response")
	return tlv8.Encode(res)
}

// kindError carries a specific wire error kind through the handler.
type kindError struct {
	kind tlv8.ErrorKind
	msg  string
}

func (e *kindError) Error() string { return e.msg }

// errAuthentication covers absent identity, unknown identity and non-admin
// identity uniformly.
var errAuthentication = &kindError{kind: tlv8.KindAuthentication, msg: "caller is not an admin controller"}

// errMaxPeers indicates the configured pairing capacity would be exceeded.
var errMaxPeers = &kindError{kind: tlv8.KindMaxPeers, msg: "maximum peer count reached"}

// errorKind maps a handler error to its wire error kind.
func errorKind(err error) tlv8.ErrorKind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return tlv8.KindUnknown
}

// checkAdmin verifies the caller has an identity that resolves in the store
// to an admin pairing. Any other outcome is an authentication failure.
func (h *Pairings) checkAdmin(caller Caller) error {
	if caller == nil {
		return errAuthentication
	}
	id, ok := caller.ControllerID()
	if !ok {
		return errAuthentication
	}

	h.storeMu.Lock()
	p, err := h.store.Load(id)
	h.storeMu.Unlock()

	if err != nil {
		return errAuthentication
	}
	if p.Permissions != pairing.PermissionAdmin {
		return errAuthentication
	}
	return nil
}

// parsePairingID validates the raw identifier bytes as UTF-8 UUID text.
func parsePairingID(raw []byte) (uuid.UUID, error) {
	if !utf8.Valid(raw) {
		return uuid.UUID{}, fmt.Errorf("pairing id is not valid UTF-8")
	}
	id, err := uuid.Parse(string(raw))
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("pairing id is not a UUID: %w", err)
	}
	return id, nil
}

func (h *Pairings) handleAdd(op AddOp, caller Caller) (tlv8.Container, error) {
	if err := h.checkAdmin(caller); err != nil {
		return nil, err
	}

	id, err := parsePairingID(op.PairingID)
	if err != nil {
		return nil, err
	}
	ltpk, err := pairing.PublicKeyFromBytes(op.LTPK)
	if err != nil {
		return nil, err
	}

	h.storeMu.Lock()
	existing, loadErr := h.store.Load(id)
	switch {
	case loadErr == nil:
		// Re-adding an existing pairing only updates its permissions; a
		// different key is a potential impersonation attempt.
		if existing.PublicKey != ltpk {
			h.storeMu.Unlock()
			return nil, fmt.Errorf("public key mismatch for existing pairing %s", id)
		}
		existing.Permissions = op.Permissions
		if err := h.store.Save(existing); err != nil {
			h.storeMu.Unlock()
			return nil, err
		}

	case errors.Is(loadErr, pairing.ErrPairingNotFound):
		if max, ok := h.config.MaxPeers(); ok {
			count, err := h.store.Count()
			if err != nil {
				h.storeMu.Unlock()
				return nil, err
			}
			if count+1 > max {
				h.storeMu.Unlock()
				return nil, errMaxPeers
			}
		}
		p := &pairing.Pairing{ID: id, PublicKey: ltpk, Permissions: op.Permissions}
		if err := h.store.Save(p); err != nil {
			h.storeMu.Unlock()
			return nil, err
		}

	default:
		h.storeMu.Unlock()
		return nil, loadErr
	}

	count, countErr := h.store.Count()

	// Release store access before fan-out: a subscriber may re-enter the
	// store.
	h.storeMu.Unlock()
	h.emitter.Emit(event.ControllerPaired{ID: id})
	if countErr == nil {
		h.emitter.Emit(event.PairingsChanged{Count: count})
	}

	return tlv8.Container{tlv8.State(StepResponse)}, nil
}

func (h *Pairings) handleRemove(op RemoveOp, caller Caller) (tlv8.Container, error) {
	if err := h.checkAdmin(caller); err != nil {
		return nil, err
	}

	id, err := parsePairingID(op.PairingID)
	if err != nil {
		return nil, err
	}

	// Removal is idempotent: deleting an absent id succeeds.
	h.storeMu.Lock()
	err = h.store.Delete(id)
	var count int
	var countErr error
	if err == nil {
		count, countErr = h.store.Count()
	}
	h.storeMu.Unlock()
	if err != nil {
		return nil, err
	}

	h.emitter.Emit(event.ControllerUnpaired{ID: id})
	if countErr == nil {
		h.emitter.Emit(event.PairingsChanged{Count: count})
	}

	return tlv8.Container{tlv8.State(StepResponse)}, nil
}

func (h *Pairings) handleList(caller Caller) (tlv8.Container, error) {
	if err := h.checkAdmin(caller); err != nil {
		return nil, err
	}

	h.storeMu.Lock()
	pairings, err := h.store.List()
	h.storeMu.Unlock()
	if err != nil {
		return nil, err
	}

	list := tlv8.Container{tlv8.State(StepResponse)}
	for _, p := range pairings {
		list = append(list,
			tlv8.Identifier(p.ID.String()),
			tlv8.PublicKey(p.PublicKey[:]),
			tlv8.Permissions(p.Permissions.Byte()),
			// A separator follows every record, including the last;
			// downstream parsers depend on this framing.
			tlv8.Separator(),
		)
	}
	return list, nil
}

// logMessage records a service-layer protocol message.
func (h *Pairings) logMessage(caller Caller, dir log.Direction, msg string) {
	ev := log.Event{
		Timestamp: time.Now(),
		Direction: dir,
		Layer:     log.LayerService,
		Category:  log.CategoryMessage,
		Message:   msg,
	}
	if caller != nil {
		if id, ok := caller.ControllerID(); ok {
			ev.ControllerID = id.String()
		}
	}
	h.logger.Log(ev)
}

// logError records a failed operation.
func (h *Pairings) logError(caller Caller, err error, kind tlv8.ErrorKind) {
	ev := log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionOut,
		Layer:     log.LayerService,
		Category:  log.CategoryError,
		Error: &log.ErrorData{
			Layer:   log.LayerService,
			Message: err.Error(),
			Step:    StepResponse,
			Code:    byte(kind),
		},
	}
	if caller != nil {
		if id, ok := caller.ControllerID(); ok {
			ev.ControllerID = id.String()
		}
	}
	h.logger.Log(ev)
}
