package webui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todofront/pkg/messages"
)

func TestVisitorsSweepEvictsIdle(t *testing.T) {
	h := newHarness(t, Options{})
	vs := h.server.Visitors()

	stale, err := vs.Get("11111111-aaaa")
	require.NoError(t, err)
	h.clock.Advance(h.cfg.Session.IdleTTL / 2)
	_, err = vs.Get("22222222-bbbb")
	require.NoError(t, err)

	h.clock.Advance(h.cfg.Session.IdleTTL/2 + time.Second)
	assert.Equal(t, 1, vs.Sweep())
	assert.Equal(t, 1, vs.Len())

	// The evicted visitor's flows are closed.
	_, err = stale.Login.Submit(t.Context())
	require.Error(t, err)

	again, err := vs.Get("11111111-aaaa")
	require.NoError(t, err)
	assert.NotSame(t, stale, again)
}

func TestEvictionCancelsPendingRedirect(t *testing.T) {
	h := newHarness(t, Options{})
	h.api.AddUser("Alice", "alice@example.com", "secret1")
	c := h.browser(t)
	h.login(t, c, "alice@example.com", "secret1")
	require.Equal(t, 1, h.clock.Pending())

	h.server.Visitors().Close()
	assert.Equal(t, 0, h.clock.Pending())
	assert.Equal(t, 0, h.server.Visitors().Len())
}

func TestOpenTodosReplacesList(t *testing.T) {
	h := newHarness(t, Options{})
	v, err := h.server.Visitors().Get("33333333-cccc")
	require.NoError(t, err)

	first := v.TodoList()
	assert.Same(t, first, v.TodoList())

	second := v.OpenTodos()
	assert.NotSame(t, first, second)
	assert.Same(t, second, v.TodoList())
}

func TestDeriveKeys(t *testing.T) {
	hash1, block1, err := deriveKeys([]byte("secret"))
	require.NoError(t, err)
	assert.Len(t, hash1, 64)
	assert.Len(t, block1, 32)
	assert.False(t, bytes.Equal(hash1[:32], block1))

	hash2, block2, err := deriveKeys([]byte("secret"))
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2)
	assert.Equal(t, block1, block2)

	other, _, err := deriveKeys([]byte("other"))
	require.NoError(t, err)
	assert.NotEqual(t, hash1, other)
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "-", formatTime(""))
	assert.Equal(t, "not a time", formatTime("not a time"))

	got := formatTime("2026-01-02T03:04:05Z")
	want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).Local().Format("2006/01/02 15:04:05")
	assert.Equal(t, want, got)
}

func TestRedirectSecondsRoundsUp(t *testing.T) {
	assert.Equal(t, int64(2), Redirect{DelayMS: 1500}.Seconds())
	assert.Equal(t, int64(1), Redirect{DelayMS: 1000}.Seconds())
	assert.Equal(t, int64(0), Redirect{DelayMS: 0}.Seconds())
}

func TestRendererMarkdown(t *testing.T) {
	h := newHarness(t, Options{})
	out := string(h.server.renderer.renderMarkdown("# Title\n\n[x](javascript:alert(1)) and `code`"))

	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<code>code</code>")
	assert.False(t, strings.Contains(out, "javascript:"))
}

func TestRendererMarkdownKeepsTextOfRawHTML(t *testing.T) {
	h := newHarness(t, Options{})
	r := h.server.renderer

	out := string(r.renderMarkdown("<div>meeting notes</div>"))
	assert.Contains(t, out, "meeting notes")

	out = string(r.renderMarkdown(`<script>alert(1)</script>hi <img src=x onerror="alert(2)">`))
	assert.Contains(t, out, "hi")
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "onerror")
}

func TestRendererUsesLocale(t *testing.T) {
	h := newHarness(t, Options{})
	h.cfg.UI.Locale = "en"
	s, err := NewServer(h.cfg, Options{Clock: h.clock})
	require.NoError(t, err)
	t.Cleanup(s.Visitors().Close)

	assert.Equal(t, "en", s.catalog.Locale())
	assert.Equal(t, messages.MustFor("en").Text(messages.LoginTitle), s.catalog.Text(messages.LoginTitle))
}
