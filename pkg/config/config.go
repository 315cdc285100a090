// Package config provides configuration loading, validation, and defaults for todofront.
// It handles YAML config files, environment variable substitution, and env overrides.
package config

import (
	"errors"
	"time"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Environment names accepted in server.env.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// EnvPrefix is prepended to the upper-cased yaml path for env overrides,
// e.g. api.endpoint -> TODOFRONT_API_ENDPOINT.
const EnvPrefix = "TODOFRONT_"

// Defaults.
const (
	DefaultAddr              = ":3000"
	DefaultAPIEndpoint       = "http://localhost:8080/query"
	DefaultAPITimeout        = 30 * time.Second
	DefaultSessionCookie     = "session"
	DefaultRedirectPath      = "/todos"
	DefaultRedirectDelay     = 1500 * time.Millisecond
	DefaultMinPasswordLength = 6
	DefaultVisitorCookie     = "todofront_visitor"
	DefaultIdleTTL           = 30 * time.Minute
	DefaultMetricsPath       = "/metrics"
	DefaultStorePath         = "~/.todofront/cookies.db"
	DefaultShutdownTimeout   = 5 * time.Second
)

// ServerConfig controls the web front end listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Env             string        `yaml:"env"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// APIConfig describes the external GraphQL endpoint.
type APIConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
	// SessionCookie is the cookie the API sets on a successful login or registration.
	SessionCookie string `yaml:"session_cookie"`
}

// FlowConfig holds the fixed flow constants.
type FlowConfig struct {
	RedirectPath      string        `yaml:"redirect_path"`
	RedirectDelay     time.Duration `yaml:"redirect_delay"`
	MinPasswordLength int           `yaml:"min_password_length"`
}

// SessionConfig controls the visitor cookie of the web front end.
type SessionConfig struct {
	Secret     string        `yaml:"secret"`
	CookieName string        `yaml:"cookie_name"`
	IdleTTL    time.Duration `yaml:"idle_ttl"`
}

// UIConfig controls page rendering.
type UIConfig struct {
	Locale   string `yaml:"locale"`
	Markdown bool   `yaml:"markdown"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// CLIConfig controls the terminal client.
type CLIConfig struct {
	StorePath string `yaml:"store_path"`
}

// Config represents the complete todofront configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	API     APIConfig     `yaml:"api"`
	Flow    FlowConfig    `yaml:"flow"`
	Session SessionConfig `yaml:"session"`
	UI      UIConfig      `yaml:"ui"`
	Metrics MetricsConfig `yaml:"metrics"`
	CLI     CLIConfig     `yaml:"cli"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{
		UI:      UIConfig{Markdown: true},
		Metrics: MetricsConfig{Enabled: true},
	}
	applyDefaults(cfg)
	return cfg
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == EnvDevelopment
}
