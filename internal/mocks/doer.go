package mocks

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

// DoCall records one request seen by MockDoer. Body is read eagerly.
type DoCall struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// MockDoer implements graphql.Doer for testing.
type MockDoer struct {
	// DoFunc is called when Do is invoked. Override to customize behavior.
	DoFunc func(req *http.Request) (*http.Response, error)

	// Calls tracks all calls to Do for verification.
	Calls []DoCall

	mu sync.Mutex
}

// NewMockDoer creates a mock doer that answers every request with {"data":{}}.
func NewMockDoer() *MockDoer {
	m := &MockDoer{}
	m.DoFunc = func(_ *http.Request) (*http.Response, error) {
		return JSONResponse(http.StatusOK, `{"data":{}}`), nil
	}
	return m
}

// Do implements graphql.Doer.
func (m *MockDoer) Do(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		_ = req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	m.mu.Lock()
	m.Calls = append(m.Calls, DoCall{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: req.Header.Clone(),
		Body:   body,
	})
	fn := m.DoFunc
	m.mu.Unlock()

	return fn(req)
}

// OnDo sets a custom handler for Do calls.
func (m *MockDoer) OnDo(fn func(req *http.Request) (*http.Response, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DoFunc = fn
}

// RespondWith makes every call return the given status and body.
func (m *MockDoer) RespondWith(status int, body string) {
	m.OnDo(func(_ *http.Request) (*http.Response, error) {
		return JSONResponse(status, body), nil
	})
}

// FailWith makes every call return err.
func (m *MockDoer) FailWith(err error) {
	m.OnDo(func(_ *http.Request) (*http.Response, error) {
		return nil, err
	})
}

// CallCount returns how many times Do was called.
func (m *MockDoer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent call, or false when none was made.
func (m *MockDoer) LastCall() (DoCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return DoCall{}, false
	}
	return m.Calls[len(m.Calls)-1], true
}

// Reset clears recorded calls.
func (m *MockDoer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

// JSONResponse builds a response with a JSON content type.
func JSONResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}
