// Package todos implements the todo list screen: a one-time fetch plus a
// create flow whose results are prepended to the list.
package todos

import (
	"context"
	"strings"
	"sync"

	"todofront/pkg/flow"
	"todofront/pkg/graphql"
	"todofront/pkg/messages"
)

// FieldText is the create form's only field.
const FieldText = "text"

// Flow names used in logs and metrics.
const (
	FetchFlow  = "fetch-todos"
	CreateFlow = "create-todo"
)

// API is the surface the list needs from the GraphQL client.
type API interface {
	GetTodos(ctx context.Context) ([]graphql.Todo, error)
	CreateTodo(ctx context.Context, input graphql.NewTodo) (*graphql.Todo, error)
}

// List owns the ordered todos of one visitor and the two flows that change them.
type List struct {
	fetch  *flow.Flow[[]graphql.Todo]
	create *flow.Flow[graphql.Todo]

	mu      sync.Mutex
	todos   []graphql.Todo
	created []graphql.Todo // added before the fetch finished
	fetched bool
	loading bool
	message string
}

// TextValidator rejects whitespace-only todo text.
func TextValidator(cat *messages.Catalog) flow.Validator {
	return func(form flow.FormState) error {
		if strings.TrimSpace(form.Get(FieldText)) == "" {
			return flow.Invalid(FieldText, cat.Text(messages.TodoRequired))
		}
		return nil
	}
}

// New creates a list. opts apply to both flows (logger, recorder, clock).
func New(api API, cat *messages.Catalog, opts ...flow.Option) *List {
	if cat == nil {
		cat = messages.MustFor(messages.DefaultLocale)
	}
	l := &List{todos: []graphql.Todo{}}

	fetchOp := func(ctx context.Context, _ flow.FormState) (flow.Outcome[[]graphql.Todo], error) {
		items, err := api.GetTodos(ctx)
		if err != nil {
			return flow.Outcome[[]graphql.Todo]{}, err
		}
		return flow.Success(items, ""), nil
	}
	fetchOpts := append([]flow.Option{
		flow.WithFallbackMessage(cat.Text(messages.FetchTodosFailed)),
		flow.WithOnSuccess(l.replace),
	}, opts...)
	l.fetch = flow.New(FetchFlow, fetchOp, fetchOpts...)

	createOp := func(ctx context.Context, form flow.FormState) (flow.Outcome[graphql.Todo], error) {
		todo, err := api.CreateTodo(ctx, graphql.NewTodo{Text: form.Get(FieldText)})
		if err != nil {
			return flow.Outcome[graphql.Todo]{}, err
		}
		return flow.Success(*todo, ""), nil
	}
	createOpts := append([]flow.Option{
		flow.WithValidator(TextValidator(cat)),
		flow.WithFallbackMessage(cat.Text(messages.CreateTodoFailed)),
		flow.WithClearOnSuccess(FieldText),
		flow.WithOnSuccess(l.prepend),
	}, opts...)
	l.create = flow.New(CreateFlow, createOp, createOpts...)

	return l
}

// Load runs the initial fetch. Only the first call sends a request; later
// calls return the fetch flow's current status.
func (l *List) Load(ctx context.Context) (flow.Status[[]graphql.Todo], error) {
	l.mu.Lock()
	if l.fetched || l.loading {
		l.mu.Unlock()
		return l.fetch.Status(), nil
	}
	l.loading = true
	l.mu.Unlock()

	st, err := l.fetch.Submit(ctx)

	l.mu.Lock()
	l.loading = false
	l.fetched = true
	if st.Kind() == flow.Failed {
		l.message = st.Message()
	}
	l.mu.Unlock()
	return st, err
}

// Loaded reports whether the initial fetch has finished.
func (l *List) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fetched
}

// Loading reports whether the initial fetch is in flight.
func (l *List) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Set updates a field of the create form.
func (l *List) Set(field, value string) {
	l.create.Set(field, value)
}

// Text returns the pending todo text.
func (l *List) Text() string {
	return l.create.Form().Get(FieldText)
}

// Create submits the create form. On success the new todo is prepended and the
// text field cleared; on failure the text is kept.
func (l *List) Create(ctx context.Context) (flow.Status[graphql.Todo], error) {
	st, err := l.create.Submit(ctx)
	return l.afterCreate(st, err)
}

// CreateText sets the text and submits in one step. While a create is in
// flight the pending text is left as it was and ErrBusy is returned.
func (l *List) CreateText(ctx context.Context, text string) (flow.Status[graphql.Todo], error) {
	st, err := l.create.SubmitForm(ctx, flow.FormState{FieldText: text})
	return l.afterCreate(st, err)
}

func (l *List) afterCreate(st flow.Status[graphql.Todo], err error) (flow.Status[graphql.Todo], error) {
	if err != nil {
		return st, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	switch st.Kind() {
	case flow.Failed:
		l.message = st.Message()
	case flow.Succeeded:
		l.message = ""
	}
	return st, nil
}

// CreateStatus returns the status of the create flow.
func (l *List) CreateStatus() flow.Status[graphql.Todo] {
	return l.create.Status()
}

// FetchStatus returns the status of the initial fetch.
func (l *List) FetchStatus() flow.Status[[]graphql.Todo] {
	return l.fetch.Status()
}

// Message returns the error currently shown above the list, or "".
func (l *List) Message() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.message
}

// Todos returns a copy of the ordered list, newest first.
func (l *List) Todos() []graphql.Todo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]graphql.Todo{}, l.todos...)
}

// Close disposes both flows.
func (l *List) Close() {
	l.fetch.Close()
	l.create.Close()
}

func (l *List) replace(items []graphql.Todo) {
	l.mu.Lock()
	defer l.mu.Unlock()

	seen := make(map[string]bool, len(items))
	for _, t := range items {
		seen[t.ID] = true
	}
	out := make([]graphql.Todo, 0, len(l.created)+len(items))
	for _, t := range l.created {
		if !seen[t.ID] {
			out = append(out, t)
		}
	}
	l.todos = append(out, items...)
	l.created = nil
}

func (l *List) prepend(todo graphql.Todo) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.todos = append([]graphql.Todo{todo}, l.todos...)
	if !l.fetched {
		l.created = append([]graphql.Todo{todo}, l.created...)
	}
}
