package flow

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Flow methods.
var (
	ErrBusy              = errors.New("flow: submission already in progress")
	ErrClosed            = errors.New("flow: closed")
	ErrInvalidTransition = errors.New("flow: invalid state transition")
)

// ValidationError is a local, pre-network failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// Invalid is shorthand for a *ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// OperationRejected is a well-formed response whose success flag was false.
// Message is shown to the user verbatim.
type OperationRejected struct {
	Message string
}

func (e *OperationRejected) Error() string {
	return "operation rejected: " + e.Message
}

// TransportFailure is implemented by errors that should be shown as the flow's
// generic fallback message: network failures, timeouts, bad statuses,
// unparseable bodies and error arrays.
type TransportFailure interface {
	error
	TransportFailure()
}

// IsTransportFailure reports whether err wraps a TransportFailure.
func IsTransportFailure(err error) bool {
	var tf TransportFailure
	return errors.As(err, &tf)
}
