package account

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todofront/internal/mocks"
	"todofront/pkg/flow"
	"todofront/pkg/graphql"
	"todofront/pkg/messages"
	"todofront/pkg/testkit"
)

var ja = messages.MustFor("ja")

func fill(f *flow.Flow[graphql.User], fields map[string]string) {
	for k, v := range fields {
		f.Set(k, v)
	}
}

func TestRegistrationValidation(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   string
	}{
		{
			name:   "all empty",
			fields: map[string]string{},
			want:   "すべてのフィールドを入力してください",
		},
		{
			name:   "missing name",
			fields: map[string]string{FieldEmail: "a@b.c", FieldPassword: "secret1", FieldConfirmPassword: "secret1"},
			want:   "すべてのフィールドを入力してください",
		},
		{
			name:   "missing password beats mismatch",
			fields: map[string]string{FieldName: "Taro", FieldEmail: "a@b.c", FieldConfirmPassword: "x"},
			want:   "すべてのフィールドを入力してください",
		},
		{
			name:   "mismatch",
			fields: map[string]string{FieldName: "Taro", FieldEmail: "a@b.c", FieldPassword: "secret1", FieldConfirmPassword: "secret2"},
			want:   "パスワードが一致しません",
		},
		{
			name:   "mismatch beats short password",
			fields: map[string]string{FieldName: "Taro", FieldEmail: "a@b.c", FieldPassword: "abc", FieldConfirmPassword: "abd"},
			want:   "パスワードが一致しません",
		},
		{
			name:   "too short",
			fields: map[string]string{FieldName: "Taro", FieldEmail: "a@b.c", FieldPassword: "abc", FieldConfirmPassword: "abc"},
			want:   "パスワードは6文字以上で入力してください",
		},
		{
			name:   "five multibyte runes is too short",
			fields: map[string]string{FieldName: "Taro", FieldEmail: "a@b.c", FieldPassword: "あいうえお", FieldConfirmPassword: "あいうえお"},
			want:   "パスワードは6文字以上で入力してください",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testkit.NewGraphQLServer()
			defer srv.Close()

			f := NewRegistration(graphql.NewClient(srv.Endpoint()), Settings{Catalog: ja})
			fill(f, tt.fields)

			st, err := f.Submit(context.Background())
			require.NoError(t, err)
			assert.Equal(t, flow.Failed, st.Kind())
			assert.Equal(t, tt.want, st.Message())
			assert.Equal(t, 0, srv.RequestCount(), "validation failures send nothing")
		})
	}
}

func TestRegistrationCustomMinLength(t *testing.T) {
	v := RegistrationValidator(Settings{Catalog: messages.MustFor("en"), MinPasswordLength: 10})
	err := v(flow.FormState{FieldName: "n", FieldEmail: "e", FieldPassword: "123456789", FieldConfirmPassword: "123456789"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 10 characters")

	assert.NoError(t, v(flow.FormState{FieldName: "n", FieldEmail: "e", FieldPassword: "1234567890", FieldConfirmPassword: "1234567890"}))
}

func TestRegistrationSuccessNavigates(t *testing.T) {
	srv := testkit.NewGraphQLServer()
	defer srv.Close()
	srv.Handle("RegisterUser", testkit.RespondAuth("registerUser", true, "ユーザー登録が完了しました", map[string]any{
		"id": "1", "name": "Taro", "email": "taro@example.com", "createdAt": "2024-01-01T00:00:00Z",
	}))

	clock := flow.NewFakeClock(time.Unix(0, 0))
	nav := mocks.NewMockNavigator()
	f := NewRegistration(graphql.NewClient(srv.Endpoint()), Settings{Catalog: ja},
		flow.WithRedirect("/todos", 1500*time.Millisecond, nav), flow.WithClock(clock))
	fill(f, map[string]string{FieldName: "Taro", FieldEmail: "taro@example.com", FieldPassword: "secret1", FieldConfirmPassword: "secret1"})

	st, err := f.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, flow.Succeeded, st.Kind())
	u, _ := st.Payload()
	assert.Equal(t, "Taro", u.Name)
	assert.Equal(t, "taro@example.com", u.Email)
	assert.Equal(t, "ユーザー登録が完了しました", st.Message())

	// confirmPassword is never sent.
	req := srv.Requests()[0]
	assert.Equal(t, map[string]any{"name": "Taro", "email": "taro@example.com", "password": "secret1"}, req.Input())
	assert.Contains(t, req.Query, "mutation RegisterUser")

	clock.Advance(999 * time.Millisecond)
	assert.Equal(t, 0, nav.Count())
	clock.Advance(time.Second)
	assert.Equal(t, []string{"/todos"}, nav.Paths())
}

func TestRegistrationRejected(t *testing.T) {
	srv := testkit.NewGraphQLServer()
	defer srv.Close()
	srv.Handle("RegisterUser", testkit.RespondAuth("registerUser", false, testkit.MsgEmailTaken, nil))

	f := NewRegistration(graphql.NewClient(srv.Endpoint()), Settings{Catalog: ja})
	fill(f, map[string]string{FieldName: "Taro", FieldEmail: "taro@example.com", FieldPassword: "secret1", FieldConfirmPassword: "secret1"})

	st, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, flow.Failed, st.Kind())
	assert.Equal(t, testkit.MsgEmailTaken, st.Message())
	assert.Equal(t, "secret1", f.Form().Get(FieldPassword))
}

func TestGenericFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler testkit.HandlerFunc
	}{
		{"server error", testkit.RespondStatus(http.StatusInternalServerError)},
		{"non-JSON 200", testkit.RespondRaw("text/html", "<html>not json</html>")},
		{"errors array", testkit.RespondErrors("internal")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testkit.NewGraphQLServer()
			defer srv.Close()
			srv.Handle("RegisterUser", tt.handler)
			srv.Handle("LoginUser", tt.handler)
			client := graphql.NewClient(srv.Endpoint())

			reg := NewRegistration(client, Settings{Catalog: ja})
			fill(reg, map[string]string{FieldName: "Taro", FieldEmail: "t@x", FieldPassword: "secret1", FieldConfirmPassword: "secret1"})
			st, err := reg.Submit(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "登録中にエラーが発生しました", st.Message())
			assert.False(t, st.Busy())

			login := NewLogin(client, Settings{Catalog: ja})
			fill(login, map[string]string{FieldEmail: "t@x", FieldPassword: "secret1"})
			st, err = login.Submit(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "ログイン中にエラーが発生しました", st.Message())
		})
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := testkit.NewGraphQLServer()
	endpoint := srv.Endpoint()
	srv.Close()

	f := NewLogin(graphql.NewClient(endpoint, graphql.WithTimeout(time.Second)), Settings{Catalog: ja})
	fill(f, map[string]string{FieldEmail: "t@x", FieldPassword: "pw"})

	st, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, flow.Failed, st.Kind())
	assert.Equal(t, "ログイン中にエラーが発生しました", st.Message())
	assert.True(t, flow.IsTransportFailure(st.Err()))
}

func TestLoginValidation(t *testing.T) {
	for _, fields := range []map[string]string{
		{},
		{FieldEmail: "a@b.c"},
		{FieldPassword: "pw"},
	} {
		srv := testkit.NewGraphQLServer()
		f := NewLogin(graphql.NewClient(srv.Endpoint()), Settings{Catalog: ja})
		fill(f, fields)

		st, err := f.Submit(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "メールアドレスとパスワードを入力してください", st.Message())
		assert.Equal(t, 0, srv.RequestCount())
		srv.Close()
	}
}

func TestLoginAgainstTodoAPI(t *testing.T) {
	api := testkit.NewTodoAPI()
	defer api.Close()
	api.AddUser("Hanako", "hanako@example.com", "password")

	nav := mocks.NewMockNavigator()
	clock := flow.NewFakeClock(time.Unix(0, 0))
	f := NewLogin(graphql.NewClient(api.Endpoint()), Settings{},
		flow.WithRedirect("/todos", 1500*time.Millisecond, nav), flow.WithClock(clock))
	fill(f, map[string]string{FieldEmail: "hanako@example.com", FieldPassword: "password"})

	st, err := f.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, flow.Succeeded, st.Kind())
	u, _ := st.Payload()
	assert.Equal(t, "Hanako", u.Name)

	clock.Advance(1500 * time.Millisecond)
	assert.Equal(t, []string{"/todos"}, nav.Paths())
}

func TestLoginInFlightIsBusy(t *testing.T) {
	release := make(chan struct{})
	srv := testkit.NewGraphQLServer()
	defer srv.Close()
	srv.Handle("LoginUser", testkit.Block(release, testkit.RespondAuth("loginUser", true, "", map[string]any{"id": "1", "name": "n"})))

	f := NewLogin(graphql.NewClient(srv.Endpoint()), Settings{Catalog: ja})
	fill(f, map[string]string{FieldEmail: "a@b.c", FieldPassword: "pw"})

	done := make(chan flow.Status[graphql.User])
	go func() {
		st, _ := f.Submit(context.Background())
		done <- st
	}()
	require.Eventually(t, func() bool { return srv.RequestCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, f.Status().Busy())

	_, err := f.Submit(context.Background())
	require.ErrorIs(t, err, flow.ErrBusy)

	close(release)
	assert.Equal(t, flow.Succeeded, (<-done).Kind())
	assert.Equal(t, 1, srv.RequestCount())
}
