// Package graphql is a minimal JSON-over-HTTP GraphQL client for the todo API.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"todofront/pkg/logx"
	"todofront/pkg/metrics"
	"todofront/pkg/version"
)

// DefaultTimeout bounds every request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// ErrGraphQL marks a response whose top-level errors array was non-empty.
var ErrGraphQL = errors.New("graphql: response contained errors")

// Doer sends one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request is the JSON envelope posted to the endpoint. It is built fresh for every call.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// Error is one entry of the response errors array.
type Error struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// Response is the decoded response envelope.
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors []Error         `json:"errors,omitempty"`
}

// TransportError covers every failure that is not a semantic rejection by the
// API: network errors, timeouts, non-2xx statuses, unparseable bodies, and
// non-empty errors arrays.
type TransportError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("graphql %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("graphql %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// TransportFailure marks the error as a transport-level failure for the flow package.
func (e *TransportError) TransportFailure() {}

// Client posts GraphQL requests to a single endpoint.
type Client struct {
	endpoint  string
	doer      Doer
	timeout   time.Duration
	recorder  metrics.Recorder
	logger    *logx.Logger
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithDoer sets the HTTP transport. Use an *http.Client with a cookie jar to
// keep the API session between calls.
func WithDoer(d Doer) Option {
	return func(c *Client) { c.doer = d }
}

// WithTimeout bounds each request. Non-positive values keep DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *logx.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:  endpoint,
		doer:      http.DefaultClient,
		timeout:   DefaultTimeout,
		recorder:  metrics.Nop(),
		logger:    logx.NewLogger("graphql"),
		userAgent: version.UserAgent(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL requests are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Do posts req and decodes the data member of the response into out.
// Every failure is returned as a *TransportError.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	op := req.OperationName
	if op == "" {
		op = "anonymous"
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	status, err := c.roundTrip(ctx, req, out)
	elapsed := time.Since(start)

	statusLabel := "error"
	if status != 0 {
		statusLabel = strconv.Itoa(status)
	}
	c.recorder.ObserveRequest(op, statusLabel, elapsed)
	logx.Debug(ctx, "graphql", "%s -> %s in %s", op, statusLabel, elapsed)

	if err != nil {
		terr := &TransportError{Op: op, StatusCode: status, Err: err}
		c.logger.Warn("%v", terr)
		return terr
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, req Request, out any) (int, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.doer.Do(httpReq)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var envelope Response
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
		}
		return resp.StatusCode, fmt.Errorf("%w: %s", ErrGraphQL, strings.Join(msgs, "; "))
	}

	if out == nil {
		return resp.StatusCode, nil
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return resp.StatusCode, errors.New("response has no data")
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode data: %w", err)
	}
	return resp.StatusCode, nil
}
