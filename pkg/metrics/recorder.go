// Package metrics provides metrics recording for form submissions and GraphQL round-trips.
package metrics

import "time"

// Outcome labels for flow submissions.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeRejected  = "rejected"
	OutcomeInvalid   = "invalid"
	OutcomeFailed    = "failed"
	OutcomeBusy      = "busy"
)

// Recorder defines the interface for recording front end metrics.
type Recorder interface {
	// ObserveSubmission records the terminal outcome of one Submit call.
	ObserveSubmission(flow, outcome string)

	// ObserveRequest records one GraphQL round-trip. status is the HTTP status
	// code as text, or "error" when no response was received.
	ObserveRequest(operation, status string, duration time.Duration)

	// SetActiveVisitors reports the number of live visitor sessions.
	SetActiveVisitors(n int)
}

// NoopRecorder implements Recorder with no-op behavior for when metrics are disabled.
type NoopRecorder struct{}

// Nop returns a no-op metrics recorder that discards all metrics.
func Nop() Recorder {
	return &NoopRecorder{}
}

// ObserveSubmission does nothing in the no-op recorder.
func (n *NoopRecorder) ObserveSubmission(_, _ string) {}

// ObserveRequest does nothing in the no-op recorder.
func (n *NoopRecorder) ObserveRequest(_, _ string, _ time.Duration) {}

// SetActiveVisitors does nothing in the no-op recorder.
func (n *NoopRecorder) SetActiveVisitors(_ int) {}
