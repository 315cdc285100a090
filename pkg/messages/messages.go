// Package messages holds the fixed, localized strings shown by the form flows and pages.
package messages

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownLocale is returned by For when no catalog exists for a locale.
var ErrUnknownLocale = errors.New("messages: unknown locale")

// Key names one message in a catalog.
type Key string

// Validation and failure messages.
const (
	FillAllFields         Key = "validation.fill_all_fields"
	PasswordMismatch      Key = "validation.password_mismatch"
	PasswordTooShort      Key = "validation.password_too_short" // takes the minimum length
	EmailPasswordRequired Key = "validation.email_password_required"
	TodoRequired          Key = "validation.todo_required"

	RegisterFailed   Key = "failure.register"
	LoginFailed      Key = "failure.login"
	FetchTodosFailed Key = "failure.fetch_todos"
	CreateTodoFailed Key = "failure.create_todo"
	Busy             Key = "failure.busy"
)

// Page labels.
const (
	RegisterTitle       Key = "register.title"
	RegisterButton      Key = "register.button"
	RegisterBusy        Key = "register.busy"
	RegisterDoneTitle   Key = "register.done_title"
	RegisterDoneBody    Key = "register.done_body"
	RegisterAnother     Key = "register.another"
	LoginTitle          Key = "login.title"
	LoginButton         Key = "login.button"
	LoginBusy           Key = "login.busy"
	LoginDoneTitle      Key = "login.done_title"
	LoginDoneBody       Key = "login.done_body"
	LoginNoAccount      Key = "login.no_account"
	LoginRegisterLink   Key = "login.register_link"
	TodosTitle          Key = "todos.title"
	TodosNew            Key = "todos.new"
	TodosPlaceholder    Key = "todos.placeholder"
	TodosButton         Key = "todos.button"
	TodosBusy           Key = "todos.busy"
	TodosLoading        Key = "todos.loading"
	TodosEmpty          Key = "todos.empty"
	TodosEmptyHint      Key = "todos.empty_hint"
	TodosOwner          Key = "todos.owner"
	Logout              Key = "nav.logout"
	FieldName           Key = "field.name"
	FieldEmail          Key = "field.email"
	FieldPassword       Key = "field.password"
	FieldConfirm        Key = "field.confirm_password"
	UserInfo            Key = "success.user_info"
	RegisteredAt        Key = "success.registered_at"
	Redirecting         Key = "success.redirecting"
	RegisteredInfoTitle Key = "success.registered_info"
)

// Catalog is an immutable set of messages for one locale.
type Catalog struct {
	locale  string
	entries map[Key]string
}

//nolint:gochecknoglobals // static message tables
var catalogs = map[string]map[Key]string{
	"ja": {
		FillAllFields:         "すべてのフィールドを入力してください",
		PasswordMismatch:      "パスワードが一致しません",
		PasswordTooShort:      "パスワードは%d文字以上で入力してください",
		EmailPasswordRequired: "メールアドレスとパスワードを入力してください",
		TodoRequired:          "Todoを入力してください",
		RegisterFailed:        "登録中にエラーが発生しました",
		LoginFailed:           "ログイン中にエラーが発生しました",
		FetchTodosFailed:      "Todoの取得に失敗しました",
		CreateTodoFailed:      "Todoの作成に失敗しました。ログインしているか確認してください。",
		Busy:                  "処理中です。しばらくお待ちください",

		RegisterTitle:       "ユーザー登録",
		RegisterButton:      "登録",
		RegisterBusy:        "登録中...",
		RegisterDoneTitle:   "✅ 登録完了",
		RegisterDoneBody:    "ユーザー登録が正常に完了しました。",
		RegisterAnother:     "別のユーザーを登録",
		LoginTitle:          "ログイン",
		LoginButton:         "ログイン",
		LoginBusy:           "ログイン中...",
		LoginDoneTitle:      "✅ ログイン成功",
		LoginDoneBody:       "ログインしました。",
		LoginNoAccount:      "アカウントをお持ちでない方は",
		LoginRegisterLink:   "新規登録",
		TodosTitle:          "📝 Todo一覧",
		TodosNew:            "新しいTodoを追加",
		TodosPlaceholder:    "Todoを入力...",
		TodosButton:         "追加",
		TodosBusy:           "追加中...",
		TodosLoading:        "読み込み中...",
		TodosEmpty:          "まだTodoがありません。",
		TodosEmptyHint:      "上のフォームから新しいTodoを追加してください。",
		TodosOwner:          "作成者",
		Logout:              "ログアウト",
		FieldName:           "名前",
		FieldEmail:          "メールアドレス",
		FieldPassword:       "パスワード",
		FieldConfirm:        "パスワード確認",
		UserInfo:            "ユーザー情報",
		RegisteredAt:        "登録日時",
		Redirecting:         "Todo一覧ページに移動します...",
		RegisteredInfoTitle: "登録情報",
	},
	"en": {
		FillAllFields:         "Please fill in all fields",
		PasswordMismatch:      "Passwords do not match",
		PasswordTooShort:      "Password must be at least %d characters",
		EmailPasswordRequired: "Please enter your email address and password",
		TodoRequired:          "Please enter a todo",
		RegisterFailed:        "An error occurred during registration",
		LoginFailed:           "An error occurred during login",
		FetchTodosFailed:      "Failed to load todos",
		CreateTodoFailed:      "Failed to create the todo. Please check that you are logged in.",
		Busy:                  "A request is already in progress. Please wait",

		RegisterTitle:       "Sign up",
		RegisterButton:      "Sign up",
		RegisterBusy:        "Signing up...",
		RegisterDoneTitle:   "✅ Registration complete",
		RegisterDoneBody:    "Your account has been created.",
		RegisterAnother:     "Register another user",
		LoginTitle:          "Log in",
		LoginButton:         "Log in",
		LoginBusy:           "Logging in...",
		LoginDoneTitle:      "✅ Logged in",
		LoginDoneBody:       "You are now logged in.",
		LoginNoAccount:      "Don't have an account?",
		LoginRegisterLink:   "Sign up",
		TodosTitle:          "📝 Todos",
		TodosNew:            "Add a new todo",
		TodosPlaceholder:    "What needs doing...",
		TodosButton:         "Add",
		TodosBusy:           "Adding...",
		TodosLoading:        "Loading...",
		TodosEmpty:          "No todos yet.",
		TodosEmptyHint:      "Use the form above to add one.",
		TodosOwner:          "Created by",
		Logout:              "Log out",
		FieldName:           "Name",
		FieldEmail:          "Email",
		FieldPassword:       "Password",
		FieldConfirm:        "Confirm password",
		UserInfo:            "Account",
		RegisteredAt:        "Registered",
		Redirecting:         "Taking you to your todos...",
		RegisteredInfoTitle: "Registration details",
	},
}

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "ja"

// For returns the catalog for locale. An empty locale selects DefaultLocale.
func For(locale string) (*Catalog, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	entries, ok := catalogs[locale]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocale, locale)
	}
	return &Catalog{locale: locale, entries: entries}, nil
}

// MustFor is For that panics on an unknown locale. Intended for tests and static setup.
func MustFor(locale string) *Catalog {
	c, err := For(locale)
	if err != nil {
		panic(err)
	}
	return c
}

// Locales lists the available locales in sorted order.
func Locales() []string {
	out := make([]string, 0, len(catalogs))
	for l := range catalogs {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Locale returns the catalog's locale tag.
func (c *Catalog) Locale() string {
	return c.locale
}

// Text returns the message for key, formatted with args when the message takes them.
// Unknown keys render as the key itself so a missing entry is visible rather than blank.
func (c *Catalog) Text(key Key, args ...any) string {
	msg, ok := c.entries[key]
	if !ok {
		return string(key)
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}
