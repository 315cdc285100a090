// Command todofront serves the registration, login and todo screens over a
// remote GraphQL API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"todofront/pkg/config"
	"todofront/pkg/logx"
	"todofront/pkg/metrics"
	"todofront/pkg/version"
	"todofront/pkg/webui"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to the YAML config file (defaults and TODOFRONT_* env vars when empty)")
		envFile     = flag.String("env-file", ".env", "Optional .env file loaded before the config")
		addr        = flag.String("addr", "", "Listen address (overrides server.addr)")
		debug       = flag.Bool("debug", false, "Enable debug logging")
		domains     = flag.String("debug-domains", "", "Comma-separated debug domains, e.g. flow,graphql (all when empty)")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("todofront %s\n", version.Version)
		fmt.Printf("  commit: %s\n", version.Commit)
		fmt.Printf("  built:  %s\n", version.Date)
		os.Exit(0)
	}

	configureDebug(*debug, *domains)
	os.Exit(run(*configPath, *envFile, *addr))
}

// run contains the main application logic and returns an exit code.
func run(configPath, envFile, addr string) int {
	cfg, server, err := setup(configPath, envFile, addr)
	if err != nil {
		// Already logged.
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logx.Infof("🚀 todofront %s (%s) listening on %s", version.Version, cfg.Server.Env, cfg.Server.Addr)
	if err := server.Run(ctx); err != nil {
		_ = logx.Wrap(err, "web UI stopped")
		return 1
	}
	logx.Infof("👋 todofront stopped")
	return 0
}

// setup loads the configuration and builds the server with its metrics registry.
func setup(configPath, envFile, addr string) (*config.Config, *webui.Server, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, nil, logx.Wrap(err, "failed to load "+envFile)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, logx.Wrap(err, "failed to load config")
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	server, err := webui.NewServer(cfg, webui.Options{
		Recorder: metrics.NewPrometheusRecorder(reg),
		Gatherer: reg,
	})
	if err != nil {
		return nil, nil, logx.Wrap(err, "failed to create web UI")
	}
	return cfg, server, nil
}

// configureDebug applies the -debug and -debug-domains flags on top of the
// DEBUG and DEBUG_DOMAINS environment variables.
func configureDebug(enabled bool, domains string) {
	if enabled {
		logx.SetDebug(true)
	}
	if domains != "" {
		logx.SetDebugDomains(strings.Split(domains, ","))
	}
}

// loadEnvFile loads path into the environment. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
