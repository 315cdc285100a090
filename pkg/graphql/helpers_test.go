package graphql

import (
	"net/http/cookiejar"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestJar(t *testing.T) *cookiejar.Jar {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return jar
}
