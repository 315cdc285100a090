// Package testkit provides a fake GraphQL endpoint for front end tests.
package testkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Request is a GraphQL request as received by the fake server.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`

	Header  http.Header     `json:"-"`
	Cookies []*http.Cookie `json:"-"`
}

// Input returns the "input" variable as a map, or nil.
func (r Request) Input() map[string]any {
	in, _ := r.Variables["input"].(map[string]any)
	return in
}

// HandlerFunc answers one operation.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, req Request)

// GraphQLServer is an httptest server that dispatches on operationName and records every request.
type GraphQLServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]HandlerFunc
	requests []Request
}

// NewGraphQLServer starts a fake endpoint. Unhandled operations answer with a GraphQL error.
func NewGraphQLServer() *GraphQLServer {
	s := &GraphQLServer{handlers: make(map[string]HandlerFunc)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Endpoint returns the URL to post queries to.
func (s *GraphQLServer) Endpoint() string {
	return s.Server.URL + "/query"
}

// Handle registers h for operation, replacing any previous handler.
func (s *GraphQLServer) Handle(operation string, h HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[operation] = h
}

// Requests returns a copy of the recorded requests.
func (s *GraphQLServer) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestCount returns how many requests were received.
func (s *GraphQLServer) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// CountFor returns how many requests named operation were received.
func (s *GraphQLServer) CountFor(operation string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.OperationName == operation {
			n++
		}
	}
	return n
}

func (s *GraphQLServer) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/query" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	req.Header = r.Header.Clone()
	req.Cookies = r.Cookies()

	s.mu.Lock()
	s.requests = append(s.requests, req)
	h, ok := s.handlers[req.OperationName]
	s.mu.Unlock()

	if !ok {
		RespondErrors("unknown operation " + req.OperationName)(w, r, req)
		return
	}
	h(w, r, req)
}

// RespondData answers {"data":{field:value}}.
func RespondData(field string, value any) HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request, _ Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{field: value}})
	}
}

// RespondAuth answers an auth mutation payload.
func RespondAuth(field string, success bool, message string, user map[string]any) HandlerFunc {
	payload := map[string]any{"success": success, "message": message, "user": user}
	return RespondData(field, payload)
}

// RespondErrors answers 200 with a top-level errors array.
func RespondErrors(messages ...string) HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request, req Request) {
		errs := make([]map[string]any, 0, len(messages))
		for _, m := range messages {
			errs = append(errs, map[string]any{"message": m, "path": []string{req.OperationName}})
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": nil, "errors": errs})
	}
}

// RespondStatus answers with a bare status code.
func RespondStatus(code int) HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request, _ Request) {
		http.Error(w, http.StatusText(code), code)
	}
}

// RespondRaw answers 200 with body verbatim.
func RespondRaw(contentType, body string) HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request, _ Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}
}

// Block waits until release is closed or the client goes away, then delegates to next.
func Block(release <-chan struct{}, next HandlerFunc) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, req Request) {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		next(w, r, req)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
