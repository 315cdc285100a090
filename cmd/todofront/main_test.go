package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todofront/pkg/logx"
)

func TestLoadEnvFileMissingIsIgnored(t *testing.T) {
	require.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
	require.NoError(t, loadEnvFile(""))
}

func TestLoadEnvFileSetsVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TODOFRONT_TEST_ENV_FILE=loaded\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("TODOFRONT_TEST_ENV_FILE") })

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "loaded", os.Getenv("TODOFRONT_TEST_ENV_FILE"))
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todofront.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ui:\n  locale: xx\n"), 0o600))

	var buf bytes.Buffer
	logx.SetOutput(&buf)
	t.Cleanup(func() { logx.SetOutput(nil) })

	assert.Equal(t, 1, run(path, "", ""))
	assert.Contains(t, buf.String(), "ERROR: failed to load config")
}

func TestSetupWrapsConfigErrors(t *testing.T) {
	logx.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() { logx.SetOutput(nil) })

	_, _, err := setup(filepath.Join(t.TempDir(), "missing.yaml"), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config: ")
}

func TestConfigureDebugLimitsDomains(t *testing.T) {
	t.Cleanup(func() {
		logx.SetDebug(false)
		logx.SetDebugDomains(nil)
	})

	configureDebug(true, "flow, graphql")

	assert.True(t, logx.IsDebugEnabledForDomain("flow"))
	assert.True(t, logx.IsDebugEnabledForDomain("graphql"))
	assert.False(t, logx.IsDebugEnabledForDomain("webui"))
}
