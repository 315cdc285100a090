package logx

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestLogger redirects log output into a buffer for the duration of the test.
func setupTestLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })
	return &buf
}

func TestNewLogger(t *testing.T) {
	buf := setupTestLogger(t)
	NewLogger("webui").Warn("hello")
	assert.Contains(t, buf.String(), "[webui] WARN: hello")
}

func TestLogFormat(t *testing.T) {
	buf := setupTestLogger(t)

	NewLogger("graphql").Info("Test message with %s", "formatting")

	output := buf.String()
	assert.Contains(t, output, "[graphql]")
	assert.Contains(t, output, "INFO")
	assert.Contains(t, output, "Test message with formatting")
}

func TestLogLevels(t *testing.T) {
	logger := NewLogger("flow")

	tests := []struct {
		level   Level
		logFunc func(string, ...any)
	}{
		{LevelDebug, logger.Debug},
		{LevelInfo, logger.Info},
		{LevelWarn, logger.Warn},
		{LevelError, logger.Error},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			buf := setupTestLogger(t)
			if tt.level == LevelDebug {
				SetDebug(true)
				defer SetDebug(false)
			}

			tt.logFunc("test message")
			assert.Contains(t, buf.String(), string(tt.level))
		})
	}
}

func TestDebugSuppressedWhenDisabled(t *testing.T) {
	buf := setupTestLogger(t)
	SetDebug(false)

	NewLogger("flow").Debug("should not appear")
	assert.Empty(t, buf.String())
}

func TestDomainFiltering(t *testing.T) {
	buf := setupTestLogger(t)
	SetDebug(true)
	SetDebugDomains([]string{"graphql"})
	defer func() {
		SetDebug(false)
		SetDebugDomains(nil)
	}()

	ctx := WithComponent(context.Background(), "visitor-1")
	Debug(ctx, "flow", "filtered out")
	Debug(ctx, "graphql", "POST %s", "LoginUser")

	output := buf.String()
	assert.NotContains(t, output, "filtered out")
	assert.Contains(t, output, "[visitor-1]")
	assert.Contains(t, output, "[graphql] POST LoginUser")
}

func TestWithComponent(t *testing.T) {
	buf := setupTestLogger(t)

	original := NewLogger("account")
	derived := original.WithComponent("account-login")
	original.Info("one")
	derived.Info("two")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[account]")
	assert.Contains(t, lines[1], "[account-login]")
}

func TestComponentFromMissing(t *testing.T) {
	assert.Equal(t, "unknown", ComponentFrom(context.Background()))
}

func TestTimestampFormat(t *testing.T) {
	buf := setupTestLogger(t)
	NewLogger("test").Info("timestamp test")

	output := buf.String()
	start := strings.Index(output, "[")
	end := strings.Index(output, "]")
	require.True(t, start >= 0 && end > start, "no timestamp in %q", output)

	_, err := time.Parse(TimestampFormat, output[start+1:end])
	assert.NoError(t, err)
}

func TestInMemoryLogBufferBounded(t *testing.T) {
	b := NewInMemoryLogBuffer(3)
	for i := 0; i < 5; i++ {
		b.AddLogEntry(&LogEntry{Timestamp: time.Now().UTC().Format(TimestampFormat), Message: string(rune('a' + i))})
	}

	entries := b.GetLogEntries("", time.Time{})
	require.Len(t, entries, 3)
	assert.Equal(t, "c", entries[0].Message)
	assert.Equal(t, "e", entries[2].Message)
}

func TestInMemoryLogBufferFilters(t *testing.T) {
	b := NewInMemoryLogBuffer(10)
	old := time.Now().Add(-time.Hour).UTC().Format(TimestampFormat)
	now := time.Now().UTC().Format(TimestampFormat)
	b.AddLogEntry(&LogEntry{Timestamp: old, Domain: "flow", Message: "old"})
	b.AddLogEntry(&LogEntry{Timestamp: now, Domain: "flow", Message: "new"})
	b.AddLogEntry(&LogEntry{Timestamp: now, Domain: "graphql", Message: "other"})

	entries := b.GetLogEntries("flow", time.Now().Add(-time.Minute))
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].Message)
}

func TestWrap(t *testing.T) {
	setupTestLogger(t)

	assert.NoError(t, Wrap(nil, "noop"))

	base := assert.AnError
	err := Wrap(base, "open store")
	require.Error(t, err)
	assert.ErrorIs(t, err, base)
	assert.True(t, strings.HasPrefix(err.Error(), "open store: "))
}
