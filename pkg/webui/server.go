// Package webui serves the registration, login and todo screens as
// server-rendered pages, plus health, log and metrics endpoints.
package webui

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"todofront/pkg/account"
	"todofront/pkg/config"
	"todofront/pkg/flow"
	"todofront/pkg/graphql"
	"todofront/pkg/logx"
	"todofront/pkg/messages"
	"todofront/pkg/metrics"
	"todofront/pkg/todos"
	"todofront/pkg/version"
)

//go:embed web/templates/*.html
var templateFS embed.FS

//go:embed web/static
var staticFS embed.FS

// sweepInterval is how often idle visitors are evicted.
const sweepInterval = time.Minute

// Options carries the optional collaborators of a Server.
type Options struct {
	// Recorder receives flow and request metrics. Defaults to a no-op recorder.
	Recorder metrics.Recorder
	// Gatherer backs /metrics and /api/stats. Both are disabled when nil.
	Gatherer prometheus.Gatherer
	// Clock drives redirect timers and visitor expiry. Defaults to the wall clock.
	Clock flow.Clock
	// Transport performs API requests. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// Server is the web front end.
type Server struct {
	cfg       *config.Config
	catalog   *messages.Catalog
	endpoint  *url.URL
	sessions  *sessions.CookieStore
	visitors  *Visitors
	renderer  *renderer
	recorder  metrics.Recorder
	gatherer  prometheus.Gatherer
	clock     flow.Clock
	transport http.RoundTripper
	logger    *logx.Logger
}

// NewServer creates a web front end for cfg.
func NewServer(cfg *config.Config, opts Options) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.Nop()
	}
	if opts.Clock == nil {
		opts.Clock = flow.SystemClock{}
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}

	cat, err := messages.For(cfg.UI.Locale)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	endpoint, err := url.Parse(cfg.API.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid api endpoint: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		catalog:   cat,
		endpoint:  endpoint,
		recorder:  opts.Recorder,
		gatherer:  opts.Gatherer,
		clock:     opts.Clock,
		transport: opts.Transport,
		logger:    logx.NewLogger("webui"),
	}

	s.sessions, err = newSessionStore(cfg, s.logger)
	if err != nil {
		return nil, err
	}

	templates, err := fs.Sub(templateFS, "web/templates")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded templates: %w", err)
	}
	s.renderer, err = newRenderer(templates, cat)
	if err != nil {
		return nil, err
	}

	s.visitors = NewVisitors(s.newVisitor, cfg.Session.IdleTTL, s.clock, s.recorder)
	return s, nil
}

// Visitors exposes the visitor registry.
func (s *Server) Visitors() *Visitors {
	return s.visitors
}

// newVisitor gives a browser its own API cookie jar, client and flows.
func (s *Server) newVisitor(id string) (*Visitor, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	api := graphql.NewClient(s.cfg.API.Endpoint,
		graphql.WithDoer(&http.Client{Jar: jar, Transport: s.transport}),
		graphql.WithTimeout(s.cfg.API.Timeout),
		graphql.WithRecorder(s.recorder),
		graphql.WithLogger(s.logger.WithComponent("graphql/"+shortID(id))),
	)

	settings := account.Settings{
		Catalog:           s.catalog,
		MinPasswordLength: s.cfg.Flow.MinPasswordLength,
	}
	// The browser follows the redirect itself; the server-side navigation
	// only records it once the flow has returned to Idle.
	nav := flow.NavigatorFunc(func(path string) {
		s.logger.Debug("visitor %s redirected to %s", shortID(id), path)
	})
	flowOpts := func(name string) []flow.Option {
		return []flow.Option{
			flow.WithRedirect(s.cfg.Flow.RedirectPath, s.cfg.Flow.RedirectDelay, nav),
			flow.WithClock(s.clock),
			flow.WithRecorder(s.recorder),
			flow.WithLogger(s.logger.WithComponent(name + "/" + shortID(id))),
		}
	}

	return &Visitor{
		ID:       id,
		Jar:      jar,
		API:      api,
		Register: account.NewRegistration(api, settings, flowOpts(account.RegisterFlow)...),
		Login:    account.NewLogin(api, settings, flowOpts(account.LoginFlow)...),
		endpoint: s.endpoint,
		newTodos: func() *todos.List {
			return todos.New(api, s.catalog,
				flow.WithClock(s.clock),
				flow.WithRecorder(s.recorder),
				flow.WithLogger(s.logger.WithComponent("todos/"+shortID(id))),
			)
		},
	}, nil
}

// Handler returns the routed handler with logging and panic recovery.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.RegisterRoutes(r)
	r.Use(s.recoverPanics, s.logRequests)
	return r
}

// RegisterRoutes registers all HTTP routes on r.
func (s *Server) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/logs", s.handleLogs).Methods(http.MethodGet)
	if s.gatherer != nil {
		r.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
		if s.cfg.Metrics.Enabled {
			r.Handle(s.cfg.Metrics.Path, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
		}
	}

	static, err := fs.Sub(staticFS, "web/static")
	if err != nil {
		panic(fmt.Sprintf("embedded static files missing: %v", err))
	}
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	pages := r.NewRoute().Subrouter()
	pages.Use(s.withVisitor)
	pages.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	pages.HandleFunc("/register", s.handleRegisterPage).Methods(http.MethodGet)
	pages.HandleFunc("/register", s.handleRegisterSubmit).Methods(http.MethodPost)
	pages.HandleFunc("/register/reset", s.handleRegisterReset).Methods(http.MethodPost)
	pages.HandleFunc("/login", s.handleLoginPage).Methods(http.MethodGet)
	pages.HandleFunc("/login", s.handleLoginSubmit).Methods(http.MethodPost)
	pages.HandleFunc("/todos", s.handleTodosPage).Methods(http.MethodGet)
	pages.HandleFunc("/todos", s.handleTodosSubmit).Methods(http.MethodPost)
}

// handleHealth implements GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// handleLogs implements GET /api/logs.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	domain := query.Get("domain")
	sinceStr := query.Get("since")

	var since time.Time
	if sinceStr != "" {
		var err error
		since, err = time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			s.logger.Warn("Invalid since parameter: %s", sinceStr)
			http.Error(w, "Invalid since parameter (use RFC3339)", http.StatusBadRequest)
			return
		}
	}

	logs := logx.GetRecentLogEntries(domain, since)
	s.writeJSON(w, logs)
	s.logger.Debug("Served %d log entries (domain=%s, since=%s)", len(logs), domain, sinceStr)
}

// handleStats implements GET /api/stats.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	summary, err := metrics.Summarize(s.gatherer)
	if err != nil {
		s.logger.Error("Failed to gather metrics: %v", err)
		http.Error(w, "Failed to gather metrics", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, summary)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// Run serves on cfg.Server.Addr until ctx is cancelled, then shuts down
// gracefully and disposes every visitor.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.visitors.Run(sweepCtx, sweepInterval)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting web UI on %s (api %s)", s.cfg.Server.Addr, s.cfg.API.Endpoint)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.visitors.Close()
		if err != nil {
			return fmt.Errorf("web UI server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// The parent context is cancelled; shutdown needs a fresh one.
	s.logger.Info("Shutting down web UI server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	//nolint:contextcheck // parent context is already cancelled
	err := server.Shutdown(shutdownCtx)
	s.visitors.Close()
	if err != nil {
		return fmt.Errorf("web UI shutdown failed: %w", err)
	}
	return nil
}
