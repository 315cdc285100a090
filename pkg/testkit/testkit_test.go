package testkit

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, client *http.Client, url string, body map[string]any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := client.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestGraphQLServerRecordsRequests(t *testing.T) {
	srv := NewGraphQLServer()
	defer srv.Close()
	srv.Handle("GetTodos", RespondData("todos", []any{}))

	out := post(t, srv.Client(), srv.Endpoint(), map[string]any{"query": "query GetTodos { todos { id } }", "operationName": "GetTodos"})
	assert.Contains(t, out, "data")

	assert.Equal(t, 1, srv.RequestCount())
	assert.Equal(t, 1, srv.CountFor("GetTodos"))
	assert.Equal(t, 0, srv.CountFor("CreateTodo"))
	assert.Contains(t, srv.Requests()[0].Query, "GetTodos")
}

func TestGraphQLServerUnknownOperation(t *testing.T) {
	srv := NewGraphQLServer()
	defer srv.Close()

	out := post(t, srv.Client(), srv.Endpoint(), map[string]any{"query": "{ x }", "operationName": "Nope"})
	errs, ok := out["errors"].([]any)
	require.True(t, ok)
	assert.Len(t, errs, 1)
}

func TestTodoAPISessionFlow(t *testing.T) {
	api := NewTodoAPI()
	defer api.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	// Creating a todo without a session is an auth error.
	out := post(t, client, api.Endpoint(), map[string]any{
		"operationName": "CreateTodo",
		"variables":     map[string]any{"input": map[string]any{"text": "first"}},
	})
	assert.NotEmpty(t, out["errors"])

	out = post(t, client, api.Endpoint(), map[string]any{
		"operationName": "RegisterUser",
		"variables":     map[string]any{"input": map[string]any{"name": "Taro", "email": "taro@example.com", "password": "secret1"}},
	})
	payload := out["data"].(map[string]any)["registerUser"].(map[string]any)
	assert.Equal(t, true, payload["success"])

	// Duplicate registration is rejected with a message.
	out = post(t, client, api.Endpoint(), map[string]any{
		"operationName": "RegisterUser",
		"variables":     map[string]any{"input": map[string]any{"name": "Taro", "email": "taro@example.com", "password": "secret1"}},
	})
	payload = out["data"].(map[string]any)["registerUser"].(map[string]any)
	assert.Equal(t, false, payload["success"])
	assert.Equal(t, MsgEmailTaken, payload["message"])

	for _, text := range []string{"first", "second"} {
		post(t, client, api.Endpoint(), map[string]any{
			"operationName": "CreateTodo",
			"variables":     map[string]any{"input": map[string]any{"text": text}},
		})
	}

	out = post(t, client, api.Endpoint(), map[string]any{"operationName": "GetTodos"})
	todos := out["data"].(map[string]any)["todos"].([]any)
	require.Len(t, todos, 2)
	assert.Equal(t, "second", todos[0].(map[string]any)["text"])
	assert.Equal(t, "Taro", todos[0].(map[string]any)["user"].(map[string]any)["name"])
}

func TestTodoAPILoginRejectsBadPassword(t *testing.T) {
	api := NewTodoAPI()
	defer api.Close()
	api.AddUser("Hanako", "hanako@example.com", "password")

	out := post(t, api.Client(), api.Endpoint(), map[string]any{
		"operationName": "LoginUser",
		"variables":     map[string]any{"input": map[string]any{"email": "hanako@example.com", "password": "wrong"}},
	})
	payload := out["data"].(map[string]any)["loginUser"].(map[string]any)
	assert.Equal(t, false, payload["success"])
	assert.Equal(t, MsgInvalidCredentials, payload["message"])
}
