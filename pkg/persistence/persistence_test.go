package persistence

import (
	"net/http"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := Open(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenCreatesSchema(t *testing.T) {
	db := openMemory(t)
	version, err := GetSchemaVersion(db.db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestOpenIsIdempotentOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cookies.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.SaveCookie(StoredCookie{Origin: "http://api.test", Name: "session", Value: "abc"}))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	c, err := db.GetCookie("http://api.test", "session", "/")
	require.NoError(t, err)
	assert.Equal(t, "abc", c.Value)
}

func TestMigrationFromV1(t *testing.T) {
	db := openMemory(t)
	_, err := db.db.Exec(`DROP INDEX idx_cookies_expires`)
	require.NoError(t, err)
	_, err = db.db.Exec(`UPDATE schema_version SET version = 1`)
	require.NoError(t, err)

	require.NoError(t, initializeSchemaWithMigrations(db.db))
	version, err := GetSchemaVersion(db.db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestNewerSchemaIsRejected(t *testing.T) {
	db := openMemory(t)
	_, err := db.db.Exec(`UPDATE schema_version SET version = 99`)
	require.NoError(t, err)

	err = initializeSchemaWithMigrations(db.db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestCookieCRUD(t *testing.T) {
	db := openMemory(t)
	expires := time.Now().Add(time.Hour).Truncate(time.Second).UTC()

	require.NoError(t, db.SaveCookie(StoredCookie{
		Origin: "http://api.test", Name: "session", Value: "v1", Expires: expires, HTTPOnly: true,
	}))
	require.NoError(t, db.SaveCookie(StoredCookie{Origin: "http://api.test", Name: "session", Value: "v2", Expires: expires, HTTPOnly: true}))

	c, err := db.GetCookie("http://api.test", "session", "")
	require.NoError(t, err)
	assert.Equal(t, "v2", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HTTPOnly)
	assert.False(t, c.Secure)
	assert.Equal(t, expires, c.Expires)

	require.NoError(t, db.DeleteCookie("http://api.test", "session", "/"))
	_, err = db.GetCookie("http://api.test", "session", "/")
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting again is fine.
	require.NoError(t, db.DeleteCookie("http://api.test", "session", "/"))
}

func TestListAndPurgeExpired(t *testing.T) {
	db := openMemory(t)
	now := time.Now()

	require.NoError(t, db.SaveCookie(StoredCookie{Origin: "http://a.test", Name: "live", Value: "1", Expires: now.Add(time.Hour)}))
	require.NoError(t, db.SaveCookie(StoredCookie{Origin: "http://a.test", Name: "session", Value: "2"}))
	require.NoError(t, db.SaveCookie(StoredCookie{Origin: "http://a.test", Name: "dead", Value: "3", Expires: now.Add(-time.Hour)}))

	list, err := db.ListCookies(now)
	require.NoError(t, err)
	names := []string{}
	for _, c := range list {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"live", "session"}, names)

	n, err := db.PurgeExpired(now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDeleteOrigin(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, db.SaveCookie(StoredCookie{Origin: "http://a.test", Name: "x", Value: "1"}))
	require.NoError(t, db.SaveCookie(StoredCookie{Origin: "http://a.test", Name: "y", Value: "1"}))
	require.NoError(t, db.SaveCookie(StoredCookie{Origin: "http://b.test", Name: "x", Value: "1"}))

	n, err := db.DeleteOrigin("http://a.test")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	list, err := db.ListCookies(time.Now())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "http://b.test", list[0].Origin)
}

func TestJarPersistsAcrossInstances(t *testing.T) {
	db := openMemory(t)
	u, err := url.Parse("http://api.test/query")
	require.NoError(t, err)

	jar, err := NewJar(db)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: "session", Value: "token", Path: "/", HttpOnly: true}})
	require.NoError(t, jar.Err())

	restored, err := NewJar(db)
	require.NoError(t, err)
	cookies := restored.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.Equal(t, "token", cookies[0].Value)
}

func TestJarDeletesOnNegativeMaxAge(t *testing.T) {
	db := openMemory(t)
	u, err := url.Parse("http://api.test/query")
	require.NoError(t, err)

	jar, err := NewJar(db)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: "session", Value: "token", Path: "/"}})
	jar.SetCookies(u, []*http.Cookie{{Name: "session", Path: "/", MaxAge: -1}})

	assert.Empty(t, jar.Cookies(u))
	_, err = db.GetCookie("http://api.test", "session", "/")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestJarMaxAgeBecomesExpiry(t *testing.T) {
	db := openMemory(t)
	u, err := url.Parse("http://api.test/")
	require.NoError(t, err)

	jar, err := NewJar(db)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: "session", Value: "t", Path: "/", MaxAge: 3600}})

	c, err := db.GetCookie("http://api.test", "session", "/")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), c.Expires, 5*time.Second)
}

func TestJarClear(t *testing.T) {
	db := openMemory(t)
	api, err := url.Parse("http://api.test/query")
	require.NoError(t, err)
	other, err := url.Parse("http://other.test/")
	require.NoError(t, err)

	jar, err := NewJar(db)
	require.NoError(t, err)
	jar.SetCookies(api, []*http.Cookie{{Name: "session", Value: "a", Path: "/"}})
	jar.SetCookies(other, []*http.Cookie{{Name: "session", Value: "b", Path: "/"}})

	require.NoError(t, jar.Clear(api))
	assert.Empty(t, jar.Cookies(api))
	assert.Len(t, jar.Cookies(other), 1)
}
