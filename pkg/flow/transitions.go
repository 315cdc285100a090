package flow

import (
	"fmt"
	"time"
)

// ValidTransitions defines allowed state transitions for each state.
//
//nolint:gochecknoglobals // static transition table
var ValidTransitions = map[Kind][]Kind{
	Idle:       {Validating, Submitting}, // Submitting directly when there is nothing to validate
	Validating: {Failed, Submitting},
	Submitting: {Succeeded, Failed},
	Succeeded:  {Idle, Validating, Submitting}, // Reset, redirect, or a repeatable flow submitting again
	Failed:     {Idle, Validating, Submitting}, // Reset or resubmission in place
}

// IsValidTransition checks if a state transition is allowed.
func IsValidTransition(from, to Kind) bool {
	for _, s := range ValidTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition records one state change.
type Transition struct {
	From      Kind
	To        Kind
	Timestamp time.Time
	Reason    string
}

// maxTransitions bounds the per-flow history.
const maxTransitions = 100

func checkTransition(from, to Kind) error {
	if from == to && to == Idle {
		return nil
	}
	if !IsValidTransition(from, to) {
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, from, to)
	}
	return nil
}
