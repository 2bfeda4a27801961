package marketo

import (
	"errors"
	"fmt"
)

// ErrInvalidState is returned when a record cannot be sent in its current
// state, such as an id-based sync of a record with no id.
var ErrInvalidState = errors.New("marketo: invalid state")

var errNilRecord = fmt.Errorf("lead record is nil: %w", ErrInvalidState)

// ErrorKind classifies a failed operation.
type ErrorKind int

const (
	// KindInvalidState is a local precondition failure. No request was sent.
	KindInvalidState ErrorKind = iota + 1
	// KindTransport means the round trip did not complete.
	KindTransport
	// KindMalformedResponse means the response lacked the expected envelope
	// or shape, including remote faults.
	KindMalformedResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidState:
		return "invalid_state"
	case KindTransport:
		return "transport"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// Error is the failure of one Client operation.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("marketo %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// remoteFault is implemented by transport errors that carry a fault
// reported by the service.
type remoteFault interface {
	error
	FaultCode() string
}

// undecodable is implemented by transport errors for responses that
// arrived but could not be decoded.
type undecodable interface {
	error
	MalformedResponse() bool
}

// classify tags a transport error. Faults reported by the service and
// undecodable bodies are malformed responses; everything else failed in
// transit.
func classify(op string, err error) *Error {
	var fault remoteFault
	if errors.As(err, &fault) {
		return &Error{Kind: KindMalformedResponse, Op: op, Err: err}
	}
	var bad undecodable
	if errors.As(err, &bad) && bad.MalformedResponse() {
		return &Error{Kind: KindMalformedResponse, Op: op, Err: err}
	}
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

func malformed(op string, format string, args ...any) *Error {
	return &Error{Kind: KindMalformedResponse, Op: op, Err: fmt.Errorf(format, args...)}
}
