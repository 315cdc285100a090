package webui

import (
	"errors"
	"net/http"

	"todofront/pkg/account"
	"todofront/pkg/flow"
	"todofront/pkg/graphql"
	"todofront/pkg/messages"
	"todofront/pkg/todos"
)

// FormView is the data behind the register and login pages.
type FormView struct {
	Form    flow.FormState
	Message string
	Failed  bool
	Busy    bool
	// User and Notice are set once the submission succeeded.
	User   *graphql.User
	Notice string
}

// TodoView is one rendered todo.
type TodoView struct {
	ID    string
	Text  string
	Done  bool
	Owner string
}

// TodosView is the data behind the todo page.
type TodosView struct {
	Todos    []TodoView
	Text     string
	Message  string
	Busy     bool
	Loading  bool
	Markdown bool
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	v, ok := s.visitor(w, r)
	if !ok {
		return
	}
	s.renderAuthPage(w, r, "register.html", messages.RegisterTitle, v.Register, v.Register.Status(), http.StatusOK)
}

// handleRegisterSubmit implements POST /register.
func (s *Server) handleRegisterSubmit(w http.ResponseWriter, r *http.Request) {
	v, ok := s.visitor(w, r)
	if !ok {
		return
	}
	s.submitAuthForm(w, r, "register.html", messages.RegisterTitle, v.Register,
		account.FieldName, account.FieldEmail, account.FieldPassword, account.FieldConfirmPassword)
}

// handleRegisterReset implements the "register another user" button.
func (s *Server) handleRegisterReset(w http.ResponseWriter, r *http.Request) {
	v, ok := s.visitor(w, r)
	if !ok {
		return
	}
	v.Register.Reset()
	http.Redirect(w, r, "/register", http.StatusSeeOther)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	v, ok := s.visitor(w, r)
	if !ok {
		return
	}
	s.renderAuthPage(w, r, "login.html", messages.LoginTitle, v.Login, v.Login.Status(), http.StatusOK)
}

// handleLoginSubmit implements POST /login.
func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	v, ok := s.visitor(w, r)
	if !ok {
		return
	}
	s.submitAuthForm(w, r, "login.html", messages.LoginTitle, v.Login,
		account.FieldEmail, account.FieldPassword)
}

// submitAuthForm submits the posted fields through f and renders the
// resulting status. A submission already in flight answers 409 and leaves its
// form untouched.
func (s *Server) submitAuthForm(w http.ResponseWriter, r *http.Request, page string, title messages.Key,
	f *flow.Flow[graphql.User], fields ...string,
) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	values := make(flow.FormState, len(fields))
	for _, field := range fields {
		values[field] = r.PostForm.Get(field)
	}

	st, err := f.SubmitForm(r.Context(), values)
	code := http.StatusOK
	switch {
	case errors.Is(err, flow.ErrBusy):
		code = http.StatusConflict
	case errors.Is(err, flow.ErrClosed):
		http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
		return
	}
	s.renderAuthPage(w, r, page, title, f, st, code)
}

func (s *Server) renderAuthPage(w http.ResponseWriter, r *http.Request, page string, title messages.Key,
	f *flow.Flow[graphql.User], st flow.Status[graphql.User], code int,
) {
	view := FormView{
		Form: f.Form(),
		Busy: st.Busy(),
	}
	data := PageData{
		Title:       s.catalog.Text(title),
		Locale:      s.catalog.Locale(),
		CurrentPath: r.URL.Path,
	}

	switch st.Kind() {
	case flow.Failed:
		view.Failed = true
		view.Message = st.Message()
	case flow.Succeeded:
		// Without a user the form stays up with the server's message.
		if user, _ := st.Payload(); user != (graphql.User{}) {
			view.User = &user
		}
		view.Notice = st.Message()
		data.Redirect = &Redirect{
			URL:     s.cfg.Flow.RedirectPath,
			DelayMS: s.cfg.Flow.RedirectDelay.Milliseconds(),
		}
	}
	if code == http.StatusConflict {
		view.Message = s.catalog.Text(messages.Busy)
	}

	data.Data = view
	s.render(w, code, page, data)
}

// handleTodosPage implements GET /todos. Every visit fetches the list again.
func (s *Server) handleTodosPage(w http.ResponseWriter, r *http.Request) {
	v, ok := s.visitor(w, r)
	if !ok {
		return
	}
	if !v.HasSession(s.cfg.API.SessionCookie) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	list := v.OpenTodos()
	if _, err := list.Load(r.Context()); err != nil && !errors.Is(err, flow.ErrClosed) {
		s.logger.Warn("todo fetch for visitor %s: %v", shortID(v.ID), err)
	}
	s.renderTodos(w, r, list, http.StatusOK)
}

// handleTodosSubmit implements POST /todos.
func (s *Server) handleTodosSubmit(w http.ResponseWriter, r *http.Request) {
	v, ok := s.visitor(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	list := v.TodoList()
	// A list opened by this request has not been fetched yet.
	if _, err := list.Load(r.Context()); errors.Is(err, flow.ErrClosed) {
		http.Redirect(w, r, "/todos", http.StatusSeeOther)
		return
	}

	_, err := list.CreateText(r.Context(), r.PostForm.Get(todos.FieldText))
	code := http.StatusOK
	switch {
	case errors.Is(err, flow.ErrBusy):
		code = http.StatusConflict
	case errors.Is(err, flow.ErrClosed):
		http.Redirect(w, r, "/todos", http.StatusSeeOther)
		return
	}
	s.renderTodos(w, r, list, code)
}

func (s *Server) renderTodos(w http.ResponseWriter, r *http.Request, list *todos.List, code int) {
	items := list.Todos()
	view := TodosView{
		Todos:    make([]TodoView, 0, len(items)),
		Text:     list.Text(),
		Message:  list.Message(),
		Busy:     list.CreateStatus().Busy(),
		Loading:  list.Loading(),
		Markdown: s.cfg.UI.Markdown,
	}
	for _, t := range items {
		view.Todos = append(view.Todos, TodoView{ID: t.ID, Text: t.Text, Done: t.Done, Owner: t.User.Name})
	}
	if code == http.StatusConflict {
		view.Message = s.catalog.Text(messages.Busy)
	}

	s.render(w, code, "todos.html", PageData{
		Title:       s.catalog.Text(messages.TodosTitle),
		Locale:      s.catalog.Locale(),
		CurrentPath: r.URL.Path,
		Data:        view,
	})
}

func (s *Server) render(w http.ResponseWriter, code int, page string, data PageData) {
	if err := s.renderer.render(w, code, page, data); err != nil {
		s.logger.Error("Failed to render %s: %v", page, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// visitor resolves the request's visitor, answering 500 when the middleware did not run.
func (s *Server) visitor(w http.ResponseWriter, r *http.Request) (*Visitor, bool) {
	v, err := visitorFrom(r)
	if err != nil {
		s.logger.Error("%v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	return v, true
}
