package flow

import "maps"

// Kind is the discriminant of a Status.
type Kind int

// Flow states.
const (
	Idle Kind = iota
	Validating
	Submitting
	Succeeded
	Failed
)

func (k Kind) String() string {
	switch k {
	case Idle:
		return "IDLE"
	case Validating:
		return "VALIDATING"
	case Submitting:
		return "SUBMITTING"
	case Succeeded:
		return "SUCCEEDED"
	case Failed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// FormState holds the current field values of one form, keyed by field name.
type FormState map[string]string

// Get returns the value of field, or "" when unset.
func (f FormState) Get(field string) string {
	return f[field]
}

// Clone returns an independent copy.
func (f FormState) Clone() FormState {
	out := make(FormState, len(f))
	maps.Copy(out, f)
	return out
}

// Status is the observable state of a flow. Payload is meaningful only when
// Kind is Succeeded; Err only when Kind is Failed. Values are produced by the
// flow itself, so illegal combinations cannot be built from outside the package.
type Status[T any] struct {
	kind    Kind
	payload T
	message string
	err     error
}

// Kind returns the current state.
func (s Status[T]) Kind() Kind {
	return s.kind
}

// Payload returns the entity of a successful submission.
func (s Status[T]) Payload() (T, bool) {
	if s.kind != Succeeded {
		var zero T
		return zero, false
	}
	return s.payload, true
}

// Message is the text to show the user: the validation or failure message in
// Failed, the server's confirmation (possibly empty) in Succeeded.
func (s Status[T]) Message() string {
	return s.message
}

// Err returns the underlying cause of a failure.
func (s Status[T]) Err() error {
	if s.kind != Failed {
		return nil
	}
	return s.err
}

// Busy reports whether a submission is in progress. The UI shows the busy
// label and disables the trigger while this is true.
func (s Status[T]) Busy() bool {
	return s.kind == Validating || s.kind == Submitting
}

// Outcome is what an Operation returns for a well-formed response.
type Outcome[T any] struct {
	OK      bool
	Payload T
	Message string
}

// Success builds a successful outcome.
func Success[T any](payload T, message string) Outcome[T] {
	return Outcome[T]{OK: true, Payload: payload, Message: message}
}

// Rejected builds an outcome for a response whose success flag was false.
func Rejected[T any](message string) Outcome[T] {
	return Outcome[T]{Message: message}
}
