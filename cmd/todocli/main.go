// Command todocli drives the registration, login and todo flows from a
// terminal. The API session cookie is kept in a local SQLite store between runs.
package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"todofront/pkg/config"
	"todofront/pkg/logx"
	"todofront/pkg/version"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to the YAML config file")
		envFile     = flag.String("env-file", ".env", "Optional .env file loaded before the config")
		storePath   = flag.String("store", "", "Cookie store path (overrides cli.store_path)")
		debug       = flag.Bool("debug", false, "Enable debug logging")
		domains     = flag.String("debug-domains", "", "Comma-separated debug domains, e.g. flow,graphql (all when empty)")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Printf("todocli %s\n", version.Version)
		os.Exit(0)
	}
	if flag.NArg() == 0 {
		printUsage()
		os.Exit(2)
	}

	configureLogging(*debug, *domains)
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logx.Warnf("ignoring %s: %v", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		_ = logx.Errorf("failed to load config: %w", err)
		os.Exit(1)
	}
	if *storePath != "" {
		cfg.CLI.StorePath = *storePath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	in := bufio.NewReader(os.Stdin)
	code := run(ctx, cfg, flag.Args(), in, os.Stdout, terminalPassword(in, os.Stdout))
	stop()
	os.Exit(code)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: todocli [flags] <command> [args]

Commands:
  register      Create an account (prompts for name, email and password)
  login         Log in (prompts for email and password)
  logout        Forget the stored API session
  todos         List todos
  add <text>    Create a todo

Flags:
`)
	flag.PrintDefaults()
}

// terminalPassword reads a password without echo when stdin is a terminal,
// and falls back to a plain line otherwise.
func terminalPassword(in *bufio.Reader, out io.Writer) passwordFunc {
	return func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		fd := int(os.Stdin.Fd()) //nolint:gosec // fd fits in int
		if !term.IsTerminal(fd) {
			return readLine(in)
		}
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
}

// configureLogging applies the debug flags. Without -debug only warnings and
// errors are logged, so the terminal stays free for command output.
func configureLogging(debug bool, domains string) {
	if domains != "" {
		logx.SetDebugDomains(strings.Split(domains, ","))
	}
	if debug {
		logx.SetDebug(true)
		return
	}
	logx.SetOutput(warnOnly{os.Stderr})
}

// warnOnly drops DEBUG and INFO lines.
type warnOnly struct{ w io.Writer }

func (w warnOnly) Write(p []byte) (int, error) {
	if containsLevel(p, logx.LevelWarn) || containsLevel(p, logx.LevelError) {
		return w.w.Write(p)
	}
	return len(p), nil
}

func containsLevel(line []byte, level logx.Level) bool {
	return bytes.Contains(line, []byte("] "+string(level)+":"))
}
