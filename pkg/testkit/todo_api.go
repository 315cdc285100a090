package testkit

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionCookie is the cookie the fake API sets after login or registration.
const SessionCookie = "session"

// Rejection messages returned by the fake API.
const (
	MsgEmailTaken         = "このメールアドレスは既に登録されています"
	MsgInvalidCredentials = "メールアドレスまたはパスワードが正しくありません"
	MsgUnauthenticated    = "unauthenticated"
)

type apiUser struct {
	id        string
	name      string
	email     string
	password  string
	createdAt string
}

type apiTodo struct {
	id     string
	text   string
	userID string
}

// TodoAPI is a stateful fake of the todo GraphQL API with cookie sessions.
type TodoAPI struct {
	*GraphQLServer

	mu       sync.Mutex
	users    map[string]*apiUser // by email
	sessions map[string]string   // token -> user id
	todos    []apiTodo           // newest first
	nextID   int
}

// NewTodoAPI starts a fake API with RegisterUser, LoginUser, GetTodos and CreateTodo wired.
func NewTodoAPI() *TodoAPI {
	api := &TodoAPI{
		GraphQLServer: NewGraphQLServer(),
		users:         make(map[string]*apiUser),
		sessions:      make(map[string]string),
	}
	api.Handle("RegisterUser", api.register)
	api.Handle("LoginUser", api.login)
	api.Handle("GetTodos", api.getTodos)
	api.Handle("CreateTodo", api.createTodo)
	return api
}

// AddUser seeds an account.
func (a *TodoAPI) AddUser(name, email, password string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.addUserLocked(name, email, password)
}

func (a *TodoAPI) addUserLocked(name, email, password string) *apiUser {
	a.nextID++
	u := &apiUser{
		id:        strconv.Itoa(a.nextID),
		name:      name,
		email:     email,
		password:  password,
		createdAt: time.Now().UTC().Format(time.RFC3339),
	}
	a.users[email] = u
	return u
}

func (a *TodoAPI) register(w http.ResponseWriter, r *http.Request, req Request) {
	in := req.Input()
	name, email, password := str(in["name"]), str(in["email"]), str(in["password"])

	a.mu.Lock()
	if _, exists := a.users[email]; exists {
		a.mu.Unlock()
		RespondAuth("registerUser", false, MsgEmailTaken, nil)(w, r, req)
		return
	}
	u := a.addUserLocked(name, email, password)
	token := a.startSessionLocked(u)
	a.mu.Unlock()

	setSession(w, token)
	RespondAuth("registerUser", true, "ユーザー登録が完了しました", userJSON(u))(w, r, req)
}

func (a *TodoAPI) login(w http.ResponseWriter, r *http.Request, req Request) {
	in := req.Input()
	email, password := str(in["email"]), str(in["password"])

	a.mu.Lock()
	u, ok := a.users[email]
	if !ok || u.password != password {
		a.mu.Unlock()
		RespondAuth("loginUser", false, MsgInvalidCredentials, nil)(w, r, req)
		return
	}
	token := a.startSessionLocked(u)
	a.mu.Unlock()

	setSession(w, token)
	RespondAuth("loginUser", true, "ログインしました", userJSON(u))(w, r, req)
}

func (a *TodoAPI) getTodos(w http.ResponseWriter, r *http.Request, req Request) {
	a.mu.Lock()
	out := make([]map[string]any, 0, len(a.todos))
	for _, t := range a.todos {
		out = append(out, a.todoJSONLocked(t))
	}
	a.mu.Unlock()

	RespondData("todos", out)(w, r, req)
}

func (a *TodoAPI) createTodo(w http.ResponseWriter, r *http.Request, req Request) {
	a.mu.Lock()
	userID, ok := a.userForLocked(r)
	if !ok {
		a.mu.Unlock()
		RespondErrors(MsgUnauthenticated)(w, r, req)
		return
	}
	a.nextID++
	t := apiTodo{id: strconv.Itoa(a.nextID), text: str(req.Input()["text"]), userID: userID}
	a.todos = append([]apiTodo{t}, a.todos...)
	payload := a.todoJSONLocked(t)
	a.mu.Unlock()

	RespondData("createTodo", payload)(w, r, req)
}

func (a *TodoAPI) startSessionLocked(u *apiUser) string {
	token := uuid.NewString()
	a.sessions[token] = u.id
	return token
}

func (a *TodoAPI) userForLocked(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", false
	}
	id, ok := a.sessions[c.Value]
	return id, ok
}

func (a *TodoAPI) todoJSONLocked(t apiTodo) map[string]any {
	owner := map[string]any{"id": t.userID, "name": ""}
	for _, u := range a.users {
		if u.id == t.userID {
			owner["name"] = u.name
			break
		}
	}
	return map[string]any{"id": t.id, "text": t.text, "done": false, "user": owner}
}

func setSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func userJSON(u *apiUser) map[string]any {
	return map[string]any{"id": u.id, "name": u.name, "email": u.email, "createdAt": u.createdAt}
}

func str(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
