package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"todofront/pkg/messages"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads configuration from a YAML file with environment variable substitution.
// An empty path yields the defaults with env overrides applied.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return LoadBytes(nil)
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return LoadBytes(data)
}

// LoadBytes parses YAML configuration. Values missing from data keep their defaults.
func LoadBytes(data []byte) (*Config, error) {
	cfg := Default()

	if len(data) > 0 {
		// Replace ${VAR} placeholders; unknown variables become empty.
		expanded := envVarRegex.ReplaceAllStringFunc(string(data), func(match string) string {
			return os.Getenv(match[2 : len(match)-1])
		})
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	return applyEnvOverridesRecursive(reflect.ValueOf(cfg).Elem(), EnvPrefix)
}

func applyEnvOverridesRecursive(v reflect.Value, prefix string) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		tag := t.Field(i).Tag.Get("yaml")
		if tag == "" || tag == "-" {
			continue
		}
		envKey := strings.ToUpper(prefix + strings.Split(tag, ",")[0])

		if field.Kind() == reflect.Struct {
			if err := applyEnvOverridesRecursive(field, envKey+"_"); err != nil {
				return err
			}
			continue
		}

		envValue, ok := os.LookupEnv(envKey)
		if !ok {
			continue
		}
		if err := setFieldFromEnv(field, envValue); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, envKey, err)
		}
	}
	return nil
}

func setFieldFromEnv(field reflect.Value, envValue string) error {
	if !field.CanSet() {
		return nil
	}

	if field.Type() == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(envValue)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(envValue)
	case reflect.Int:
		n, err := strconv.Atoi(envValue)
		if err != nil {
			return err
		}
		field.SetInt(int64(n))
	case reflect.Bool:
		b, err := strconv.ParseBool(envValue)
		if err != nil {
			return err
		}
		field.SetBool(b)
	}
	return nil
}

// applyDefaults sets default values for missing configuration.
func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = EnvDevelopment
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.API.Endpoint == "" {
		cfg.API.Endpoint = DefaultAPIEndpoint
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = DefaultAPITimeout
	}
	if cfg.API.SessionCookie == "" {
		cfg.API.SessionCookie = DefaultSessionCookie
	}

	if cfg.Flow.RedirectPath == "" {
		cfg.Flow.RedirectPath = DefaultRedirectPath
	}
	if cfg.Flow.RedirectDelay == 0 {
		cfg.Flow.RedirectDelay = DefaultRedirectDelay
	}
	if cfg.Flow.MinPasswordLength == 0 {
		cfg.Flow.MinPasswordLength = DefaultMinPasswordLength
	}

	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = DefaultVisitorCookie
	}
	if cfg.Session.IdleTTL == 0 {
		cfg.Session.IdleTTL = DefaultIdleTTL
	}

	if cfg.UI.Locale == "" {
		cfg.UI.Locale = messages.DefaultLocale
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.CLI.StorePath == "" {
		cfg.CLI.StorePath = DefaultStorePath
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.Server.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return fmt.Errorf("%w: server.env must be one of development, production, test (got %q)", ErrInvalidConfig, cfg.Server.Env)
	}

	u, err := url.Parse(cfg.API.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: api.endpoint must be an absolute http(s) URL (got %q)", ErrInvalidConfig, cfg.API.Endpoint)
	}
	if cfg.API.Timeout < 0 {
		return fmt.Errorf("%w: api.timeout must be positive", ErrInvalidConfig)
	}

	if !strings.HasPrefix(cfg.Flow.RedirectPath, "/") {
		return fmt.Errorf("%w: flow.redirect_path must start with /", ErrInvalidConfig)
	}
	if cfg.Flow.RedirectDelay < 0 {
		return fmt.Errorf("%w: flow.redirect_delay must not be negative", ErrInvalidConfig)
	}
	if cfg.Flow.MinPasswordLength < 1 {
		return fmt.Errorf("%w: flow.min_password_length must be at least 1", ErrInvalidConfig)
	}

	if cfg.Session.IdleTTL < time.Second {
		return fmt.Errorf("%w: session.idle_ttl must be at least 1s", ErrInvalidConfig)
	}

	if _, err := messages.For(cfg.UI.Locale); err != nil {
		return fmt.Errorf("%w: ui.locale: %w", ErrInvalidConfig, err)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("%w: metrics.path must start with /", ErrInvalidConfig)
	}
	return nil
}

// ExpandHome resolves a leading ~/ against the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
