package webui

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"todofront/pkg/flow"
	"todofront/pkg/graphql"
	"todofront/pkg/logx"
	"todofront/pkg/metrics"
	"todofront/pkg/todos"
)

// Visitor is the per-browser state: its own API cookie jar and one instance of
// every screen's flow.
type Visitor struct {
	ID       string
	Jar      http.CookieJar
	API      *graphql.Client
	Register *flow.Flow[graphql.User]
	Login    *flow.Flow[graphql.User]

	endpoint *url.URL
	newTodos func() *todos.List
	lastSeen time.Time

	mu    sync.Mutex
	todos *todos.List
}

// OpenTodos starts a fresh todo screen and closes the previous one. Each
// visit to the screen fetches the list again.
func (v *Visitor) OpenTodos() *todos.List {
	fresh := v.newTodos()

	v.mu.Lock()
	old := v.todos
	v.todos = fresh
	v.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return fresh
}

// TodoList returns the current todo screen, opening one if none exists.
func (v *Visitor) TodoList() *todos.List {
	v.mu.Lock()
	l := v.todos
	v.mu.Unlock()
	if l != nil {
		return l
	}
	return v.OpenTodos()
}

// HasSession reports whether the visitor's jar holds the API session cookie.
func (v *Visitor) HasSession(cookieName string) bool {
	for _, c := range v.Jar.Cookies(v.endpoint) {
		if c.Name == cookieName && c.Value != "" {
			return true
		}
	}
	return false
}

func (v *Visitor) close() {
	v.Register.Close()
	v.Login.Close()

	v.mu.Lock()
	l := v.todos
	v.todos = nil
	v.mu.Unlock()
	if l != nil {
		l.Close()
	}
}

// VisitorFactory builds a fresh Visitor.
type VisitorFactory func(id string) (*Visitor, error)

// Visitors is the registry of live visitors. Idle visitors are evicted and
// their flows closed, which cancels any pending redirect.
type Visitors struct {
	factory  VisitorFactory
	ttl      time.Duration
	clock    flow.Clock
	recorder metrics.Recorder
	logger   *logx.Logger

	mu       sync.Mutex
	visitors map[string]*Visitor
}

// NewVisitors creates an empty registry.
func NewVisitors(factory VisitorFactory, ttl time.Duration, clock flow.Clock, recorder metrics.Recorder) *Visitors {
	if clock == nil {
		clock = flow.SystemClock{}
	}
	if recorder == nil {
		recorder = metrics.Nop()
	}
	return &Visitors{
		factory:  factory,
		ttl:      ttl,
		clock:    clock,
		recorder: recorder,
		logger:   logx.NewLogger("visitors"),
		visitors: make(map[string]*Visitor),
	}
}

// Get returns the visitor for id, creating it on first use, and marks it as seen.
func (vs *Visitors) Get(id string) (*Visitor, error) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	v, ok := vs.visitors[id]
	if !ok {
		var err error
		v, err = vs.factory(id)
		if err != nil {
			return nil, err
		}
		vs.visitors[id] = v
		vs.recorder.SetActiveVisitors(len(vs.visitors))
		vs.logger.Debug("new visitor %s (%d active)", shortID(id), len(vs.visitors))
	}
	v.lastSeen = vs.clock.Now()
	return v, nil
}

// Len returns the number of live visitors.
func (vs *Visitors) Len() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return len(vs.visitors)
}

// Sweep evicts visitors idle for longer than the TTL and returns how many were removed.
func (vs *Visitors) Sweep() int {
	now := vs.clock.Now()

	vs.mu.Lock()
	var evicted []*Visitor
	for id, v := range vs.visitors {
		if now.Sub(v.lastSeen) > vs.ttl {
			evicted = append(evicted, v)
			delete(vs.visitors, id)
		}
	}
	n := len(vs.visitors)
	vs.mu.Unlock()

	for _, v := range evicted {
		v.close()
	}
	if len(evicted) > 0 {
		vs.recorder.SetActiveVisitors(n)
		vs.logger.Info("evicted %d idle visitors (%d active)", len(evicted), n)
	}
	return len(evicted)
}

// Run sweeps every interval until ctx is cancelled.
func (vs *Visitors) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			vs.Sweep()
		}
	}
}

// Close disposes every visitor.
func (vs *Visitors) Close() {
	vs.mu.Lock()
	all := vs.visitors
	vs.visitors = make(map[string]*Visitor)
	vs.mu.Unlock()

	for _, v := range all {
		v.close()
	}
	vs.recorder.SetActiveVisitors(0)
}
