// Package flow implements the form-submission lifecycle shared by every screen:
// local validation, exactly one request to a remote API, and a terminal
// success or failure state with an optional delayed redirect.
package flow

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"todofront/pkg/logx"
	"todofront/pkg/metrics"
)

// Operation performs the remote call for one submission. A returned error is
// classified by type: *ValidationError and *OperationRejected keep their
// message, anything else shows the fallback message.
type Operation[T any] func(ctx context.Context, form FormState) (Outcome[T], error)

// Validator checks the form before any network call. It returns a
// *ValidationError (or nil).
type Validator func(form FormState) error

// Navigator performs the follow-up navigation after a successful submission.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Navigate calls f(path).
func (f NavigatorFunc) Navigate(path string) { f(path) }

// DefaultFallbackMessage is shown for transport failures when no per-flow message is set.
const DefaultFallbackMessage = "request failed"

type options struct {
	validator      Validator
	redirectPath   string
	redirectDelay  time.Duration
	navigator      Navigator
	fallback       string
	clock          Clock
	logger         *logx.Logger
	recorder       metrics.Recorder
	clearOnSuccess []string
	onSuccess      []func(any)
}

// Option configures a Flow.
type Option func(*options)

// WithValidator sets the local checks run before every submission.
func WithValidator(v Validator) Option {
	return func(o *options) { o.validator = v }
}

// WithRedirect schedules nav.Navigate(path) delay after each success.
func WithRedirect(path string, delay time.Duration, nav Navigator) Option {
	return func(o *options) {
		o.redirectPath = path
		o.redirectDelay = delay
		o.navigator = nav
	}
}

// WithFallbackMessage sets the generic message shown for transport failures.
func WithFallbackMessage(msg string) Option {
	return func(o *options) { o.fallback = msg }
}

// WithClock replaces the wall clock used for timestamps and the redirect timer.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *logx.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithClearOnSuccess clears the named fields after each success. Without it
// the form keeps its values.
func WithClearOnSuccess(fields ...string) Option {
	return func(o *options) { o.clearOnSuccess = append(o.clearOnSuccess, fields...) }
}

// WithOnSuccess registers fn to run with the payload after each success,
// before Submit returns. fn must accept the flow's payload type.
func WithOnSuccess[T any](fn func(T)) Option {
	return func(o *options) {
		o.onSuccess = append(o.onSuccess, func(v any) { fn(v.(T)) })
	}
}

// Flow is one instance of the form-submission lifecycle. It is safe for
// concurrent use; at most one submission is in flight at a time.
type Flow[T any] struct {
	name string
	op   Operation[T]
	opts options

	mu          sync.Mutex
	form        FormState
	status      Status[T]
	transitions []Transition
	redirect    Timer
	generation  uint64
	closed      bool
}

// New creates a flow in the Idle state.
func New[T any](name string, op Operation[T], opts ...Option) *Flow[T] {
	o := options{
		fallback: DefaultFallbackMessage,
		clock:    SystemClock{},
		recorder: metrics.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logx.NewLogger("flow/" + name)
	}

	return &Flow[T]{
		name: name,
		op:   op,
		opts: o,
		form: make(FormState),
	}
}

// Name returns the flow's name as used in logs and metrics.
func (f *Flow[T]) Name() string {
	return f.name
}

// Set updates one form field. It never triggers validation or a request.
func (f *Flow[T]) Set(field, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.form[field] = value
}

// Form returns a copy of the current field values.
func (f *Flow[T]) Form() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form.Clone()
}

// Status returns the current status.
func (f *Flow[T]) Status() Status[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Transitions returns the state transition history.
func (f *Flow[T]) Transitions() []Transition {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Transition{}, f.transitions...)
}

// Submit validates the form and, if it passes, performs exactly one request.
// Failures are reported in the returned Status, not as an error; the error is
// non-nil only for ErrBusy (a submission is already in flight, nothing was
// sent) and ErrClosed.
func (f *Flow[T]) Submit(ctx context.Context) (Status[T], error) {
	return f.submit(ctx, nil)
}

// SubmitForm applies values to the form and submits it as one step. The
// values are applied only once the flow has accepted the submission: a busy
// or closed flow keeps the form it had.
func (f *Flow[T]) SubmitForm(ctx context.Context, values FormState) (Status[T], error) {
	return f.submit(ctx, values)
}

func (f *Flow[T]) submit(ctx context.Context, values FormState) (Status[T], error) {
	f.mu.Lock()
	if f.closed {
		st := f.status
		f.mu.Unlock()
		return st, ErrClosed
	}
	if f.status.Busy() {
		st := f.status
		f.mu.Unlock()
		f.opts.recorder.ObserveSubmission(f.name, metrics.OutcomeBusy)
		logx.Debug(ctx, "flow", "%s: submit ignored while %s", f.name, st.kind)
		return st, ErrBusy
	}

	f.stopRedirectLocked()
	maps.Copy(f.form, values)
	form := f.form.Clone()

	if f.opts.validator != nil {
		if err := f.moveLocked(Status[T]{kind: Validating}, "submit"); err != nil {
			f.mu.Unlock()
			return f.Status(), err
		}
		if err := f.opts.validator(form); err != nil {
			st := f.failureLocked(err)
			f.mu.Unlock()
			f.opts.recorder.ObserveSubmission(f.name, metrics.OutcomeInvalid)
			return st, nil
		}
	}

	if err := f.moveLocked(Status[T]{kind: Submitting}, "request sent"); err != nil {
		f.mu.Unlock()
		return f.Status(), err
	}
	generation := f.generation
	f.mu.Unlock()

	logx.DebugFlow(ctx, "flow", f.name, "submitting")
	outcome, opErr := f.op(ctx, form)

	f.mu.Lock()
	if f.generation != generation {
		// Closed while the request was in flight; the result is dropped.
		st := f.status
		f.mu.Unlock()
		return st, ErrClosed
	}

	if opErr == nil && !outcome.OK {
		opErr = &OperationRejected{Message: outcome.Message}
	}
	if opErr != nil {
		st := f.failureLocked(opErr)
		f.mu.Unlock()
		f.opts.recorder.ObserveSubmission(f.name, outcomeLabel(opErr))
		return st, nil
	}

	st := Status[T]{kind: Succeeded, payload: outcome.Payload, message: outcome.Message}
	_ = f.moveLocked(st, "success")
	for _, field := range f.opts.clearOnSuccess {
		delete(f.form, field)
	}
	f.scheduleRedirectLocked()
	f.mu.Unlock()

	f.opts.recorder.ObserveSubmission(f.name, metrics.OutcomeSucceeded)
	for _, fn := range f.opts.onSuccess {
		fn(outcome.Payload)
	}
	return st, nil
}

// Reset returns a finished flow to Idle with an empty form and cancels any
// pending redirect. It does nothing while a submission is in flight.
func (f *Flow[T]) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status.Busy() {
		f.opts.logger.Debug("reset ignored while %s", f.status.kind)
		return
	}
	f.stopRedirectLocked()
	f.form = make(FormState)
	_ = f.moveLocked(Status[T]{kind: Idle}, "reset")
}

// Close cancels any pending redirect and rejects further submissions. A
// result arriving after Close is discarded and no navigation happens.
func (f *Flow[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.generation++
	f.stopRedirectLocked()
}

func (f *Flow[T]) failureLocked(err error) Status[T] {
	var (
		vErr *ValidationError
		rErr *OperationRejected
		msg  string
	)
	switch {
	case errors.As(err, &vErr):
		msg = vErr.Message
	case errors.As(err, &rErr) && rErr.Message != "":
		msg = rErr.Message
	default:
		msg = f.opts.fallback
		f.opts.logger.Warn("%s failed: %v", f.name, err)
	}

	st := Status[T]{kind: Failed, message: msg, err: err}
	_ = f.moveLocked(st, msg)
	return st
}

func (f *Flow[T]) moveLocked(next Status[T], reason string) error {
	from := f.status.kind
	if err := checkTransition(from, next.kind); err != nil {
		f.opts.logger.Error("%s: %v", f.name, err)
		return err
	}

	f.status = next
	f.transitions = append(f.transitions, Transition{
		From:      from,
		To:        next.kind,
		Timestamp: f.opts.clock.Now(),
		Reason:    reason,
	})
	if len(f.transitions) > maxTransitions {
		f.transitions = f.transitions[len(f.transitions)-maxTransitions:]
	}
	f.opts.logger.DebugState("transition", from.String()+" -> "+next.kind.String(), reason)
	return nil
}

func (f *Flow[T]) scheduleRedirectLocked() {
	if f.opts.navigator == nil || f.opts.redirectPath == "" {
		return
	}
	generation := f.generation
	path := f.opts.redirectPath
	f.redirect = f.opts.clock.AfterFunc(f.opts.redirectDelay, func() {
		f.mu.Lock()
		if f.closed || f.generation != generation || f.status.kind != Succeeded {
			f.mu.Unlock()
			return
		}
		f.redirect = nil
		f.form = make(FormState)
		_ = f.moveLocked(Status[T]{kind: Idle}, "redirect to "+path)
		f.mu.Unlock()

		f.opts.navigator.Navigate(path)
	})
}

// stopRedirectLocked cancels the pending redirect. Bumping the generation
// also stops a timer callback that is already running but has not taken the lock.
func (f *Flow[T]) stopRedirectLocked() {
	if f.redirect != nil {
		f.redirect.Stop()
		f.redirect = nil
	}
	f.generation++
}

func outcomeLabel(err error) string {
	var rErr *OperationRejected
	if errors.As(err, &rErr) {
		return metrics.OutcomeRejected
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return metrics.OutcomeInvalid
	}
	return metrics.OutcomeFailed
}
