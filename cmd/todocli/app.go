package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"todofront/pkg/account"
	"todofront/pkg/config"
	"todofront/pkg/flow"
	"todofront/pkg/graphql"
	"todofront/pkg/logx"
	"todofront/pkg/messages"
	"todofront/pkg/persistence"
	"todofront/pkg/todos"
)

// passwordFunc prompts for a secret.
type passwordFunc func(prompt string) (string, error)

// errFailed marks a flow failure whose message was already printed.
var errFailed = errors.New("command failed")

type app struct {
	cfg      *config.Config
	cat      *messages.Catalog
	api      *graphql.Client
	jar      *persistence.Jar
	endpoint *url.URL
	in       *bufio.Reader
	out      io.Writer
	password passwordFunc
	clock    flow.Clock
	logger   *logx.Logger
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, cfg *config.Config, args []string, in *bufio.Reader, out io.Writer, password passwordFunc) int {
	a, closeStore, err := newApp(cfg, in, out, password)
	if err != nil {
		fmt.Fprintf(out, "❌ %v\n", err)
		return 1
	}
	defer closeStore()

	if err := a.dispatch(ctx, args); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(out, "❌ %v\n", err)
		}
		return 1
	}
	return 0
}

func newApp(cfg *config.Config, in *bufio.Reader, out io.Writer, password passwordFunc) (*app, func(), error) {
	cat, err := messages.For(cfg.UI.Locale)
	if err != nil {
		return nil, nil, err
	}
	endpoint, err := url.Parse(cfg.API.Endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid api endpoint: %w", err)
	}

	path, err := config.ExpandHome(cfg.CLI.StorePath)
	if err != nil {
		return nil, nil, err
	}
	db, err := persistence.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cookie store: %w", err)
	}
	jar, err := persistence.NewJar(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to load cookies: %w", err)
	}

	a := &app{
		cfg:      cfg,
		cat:      cat,
		endpoint: endpoint,
		jar:      jar,
		api: graphql.NewClient(cfg.API.Endpoint,
			graphql.WithDoer(&http.Client{Jar: jar}),
			graphql.WithTimeout(cfg.API.Timeout),
		),
		in:       in,
		out:      out,
		password: password,
		clock:    flow.SystemClock{},
		logger:   logx.NewLogger("todocli"),
	}
	closeStore := func() {
		if err := db.Close(); err != nil {
			a.logger.Warn("failed to close cookie store: %v", err)
		}
	}
	return a, closeStore, nil
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	switch args[0] {
	case "register":
		return a.register(ctx)
	case "login":
		return a.login(ctx)
	case "logout":
		return a.logout()
	case "todos":
		return a.listTodos(ctx)
	case "add":
		if len(args) < 2 {
			return errors.New("usage: todocli add <text>")
		}
		return a.addTodo(ctx, strings.Join(args[1:], " "))
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (a *app) settings() account.Settings {
	return account.Settings{Catalog: a.cat, MinPasswordLength: a.cfg.Flow.MinPasswordLength}
}

// redirectOptions wires the post-success redirect to a channel the command waits on.
func (a *app) redirectOptions() ([]flow.Option, <-chan string) {
	navigated := make(chan string, 1)
	nav := flow.NavigatorFunc(func(path string) { navigated <- path })
	return []flow.Option{
		flow.WithRedirect(a.cfg.Flow.RedirectPath, a.cfg.Flow.RedirectDelay, nav),
		flow.WithClock(a.clock),
	}, navigated
}

func (a *app) register(ctx context.Context) error {
	opts, navigated := a.redirectOptions()
	f := account.NewRegistration(a.api, a.settings(), opts...)
	defer f.Close()

	fmt.Fprintf(a.out, "%s\n\n", a.cat.Text(messages.RegisterTitle))
	if err := a.prompt(f, account.FieldName, messages.FieldName); err != nil {
		return err
	}
	if err := a.prompt(f, account.FieldEmail, messages.FieldEmail); err != nil {
		return err
	}
	if err := a.promptSecret(f, account.FieldPassword, messages.FieldPassword); err != nil {
		return err
	}
	if err := a.promptSecret(f, account.FieldConfirmPassword, messages.FieldConfirm); err != nil {
		return err
	}

	return a.submitAuth(ctx, f, navigated, messages.RegisterBusy, messages.RegisterDoneTitle, true)
}

func (a *app) login(ctx context.Context) error {
	opts, navigated := a.redirectOptions()
	f := account.NewLogin(a.api, a.settings(), opts...)
	defer f.Close()

	fmt.Fprintf(a.out, "%s\n\n", a.cat.Text(messages.LoginTitle))
	if err := a.prompt(f, account.FieldEmail, messages.FieldEmail); err != nil {
		return err
	}
	if err := a.promptSecret(f, account.FieldPassword, messages.FieldPassword); err != nil {
		return err
	}

	return a.submitAuth(ctx, f, navigated, messages.LoginBusy, messages.LoginDoneTitle, false)
}

// submitAuth submits f and, on success, waits for the redirect before
// showing the todo list.
func (a *app) submitAuth(ctx context.Context, f *flow.Flow[graphql.User], navigated <-chan string,
	busy, doneTitle messages.Key, showCreated bool,
) error {
	fmt.Fprintln(a.out, a.cat.Text(busy))
	st, err := f.Submit(ctx)
	if err != nil {
		return err
	}
	if st.Kind() == flow.Failed {
		fmt.Fprintf(a.out, "❌ %s\n", st.Message())
		return errFailed
	}

	user, _ := st.Payload()
	fmt.Fprintf(a.out, "\n%s\n", a.cat.Text(doneTitle))
	if msg := st.Message(); msg != "" {
		fmt.Fprintln(a.out, msg)
	}
	if user != (graphql.User{}) {
		fmt.Fprintf(a.out, "  %s: %s\n", a.cat.Text(messages.FieldName), user.Name)
		fmt.Fprintf(a.out, "  %s: %s\n", a.cat.Text(messages.FieldEmail), user.Email)
		if showCreated && user.CreatedAt != "" {
			fmt.Fprintf(a.out, "  %s: %s\n", a.cat.Text(messages.RegisteredAt), user.CreatedAt)
		}
	}
	if err := a.jar.Err(); err != nil {
		a.logger.Warn("API session was not saved and will not survive this run: %v", err)
	}
	fmt.Fprintf(a.out, "\n%s\n\n", a.cat.Text(messages.Redirecting))

	select {
	case path := <-navigated:
		a.logger.Debug("navigating to %s", path)
	case <-ctx.Done():
		return ctx.Err()
	}
	return a.listTodos(ctx)
}

func (a *app) logout() error {
	if err := a.jar.Clear(a.endpoint); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	fmt.Fprintln(a.out, "👋 "+a.cat.Text(messages.Logout))
	return nil
}

func (a *app) newList() *todos.List {
	return todos.New(a.api, a.cat, flow.WithClock(a.clock))
}

func (a *app) listTodos(ctx context.Context) error {
	list := a.newList()
	defer list.Close()

	fmt.Fprintln(a.out, a.cat.Text(messages.TodosTitle))
	if _, err := list.Load(ctx); err != nil {
		return err
	}
	if msg := list.Message(); msg != "" {
		fmt.Fprintf(a.out, "❌ %s\n", msg)
		return errFailed
	}
	a.printTodos(list.Todos())
	return nil
}

func (a *app) addTodo(ctx context.Context, text string) error {
	list := a.newList()
	defer list.Close()

	st, err := list.CreateText(ctx, text)
	if err != nil {
		return err
	}
	if st.Kind() == flow.Failed {
		fmt.Fprintf(a.out, "❌ %s\n", st.Message())
		return errFailed
	}
	todo, _ := st.Payload()
	fmt.Fprint(a.out, "✅ ")
	a.printTodos([]graphql.Todo{todo})
	return nil
}

func (a *app) printTodos(items []graphql.Todo) {
	if len(items) == 0 {
		fmt.Fprintln(a.out, a.cat.Text(messages.TodosEmpty))
		fmt.Fprintln(a.out, a.cat.Text(messages.TodosEmptyHint))
		return
	}
	for _, t := range items {
		mark := "○"
		if t.Done {
			mark = "✓"
		}
		fmt.Fprintf(a.out, "%s %s  (%s: %s)\n", mark, t.Text, a.cat.Text(messages.TodosOwner), t.User.Name)
	}
}

func (a *app) prompt(f *flow.Flow[graphql.User], field string, label messages.Key) error {
	fmt.Fprintf(a.out, "%s: ", a.cat.Text(label))
	value, err := readLine(a.in)
	if err != nil {
		return err
	}
	f.Set(field, value)
	return nil
}

func (a *app) promptSecret(f *flow.Flow[graphql.User], field string, label messages.Key) error {
	value, err := a.password(a.cat.Text(label) + ": ")
	if err != nil {
		return err
	}
	f.Set(field, value)
	return nil
}

// readLine returns one line without its terminator. EOF after some input is
// not an error.
func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
