package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the execution engine.
var (
	// Validation errors, rejected before any venue call.
	ErrQuantityParse     = errors.New("quantity must be a decimal greater than zero")
	ErrQuantityBlocked   = errors.New("quantity is on the policy blocklist")
	ErrQuantityCeiling   = errors.New("quantity exceeds the policy ceiling")
	ErrInvalidDirection  = errors.New("ignored-invalid-action: unknown direction")
	ErrMissingInstrument = errors.New("instrument is required")
	ErrMissingDirection  = errors.New("direction is required for enter")

	// ErrIndeterminateFill marks an accepted entry whose fill price could
	// not be resolved. Funds may be at risk; the flow must stop without
	// placing protective orders at a guessed price and without retrying.
	ErrIndeterminateFill = errors.New("indeterminate fill: order accepted, price unknown")

	// ErrSymbolBusy means another execution holds the per-instrument lock
	// and the bounded wait expired.
	ErrSymbolBusy = errors.New("instrument busy: concurrent execution in flight")

	// ErrInvalidConfig marks a configuration validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// VenueError is an exchange rejection carrying the venue's code and message.
// It is surfaced verbatim and is fatal to the step that produced it; prior
// steps are never unwound automatically.
type VenueError struct {
	Code    int64
	Message string
}

func (e *VenueError) Error() string {
	return fmt.Sprintf("venue error %d: %s", e.Code, e.Message)
}

// AsVenueError unwraps err to a VenueError if one is present.
func AsVenueError(err error) (*VenueError, bool) {
	var ve *VenueError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// TransportError is a network or timeout failure. The outcome of the call is
// ambiguous: the request may or may not have reached the venue, so it is
// never silently retried for non-idempotent calls.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
