package persistence

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"
)

// Jar is an http.CookieJar that writes every cookie through to the database
// and restores stored cookies when it is created.
type Jar struct {
	db  *DB
	now func() time.Time

	mu      sync.Mutex
	mem     *cookiejar.Jar
	lastErr error
}

// NewJar creates a jar backed by db and loads every unexpired stored cookie into it.
func NewJar(db *DB) (*Jar, error) {
	j := &Jar{db: db, now: time.Now}
	if _, err := db.PurgeExpired(j.now()); err != nil {
		return nil, err
	}
	if err := j.reload(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Jar) reload() error {
	mem, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("failed to create cookie jar: %w", err)
	}
	stored, err := j.db.ListCookies(j.now())
	if err != nil {
		return err
	}
	for _, c := range stored {
		u, err := url.Parse(c.Origin)
		if err != nil {
			j.db.logger.Warn("skipping cookie %s with bad origin %q: %v", c.Name, c.Origin, err)
			continue
		}
		mem.SetCookies(u, []*http.Cookie{c.HTTPCookie()})
	}

	j.mu.Lock()
	j.mem = mem
	j.mu.Unlock()
	return nil
}

// SetCookies implements http.CookieJar. Storage errors are logged and kept for Err.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	j.mem.SetCookies(u, cookies)
	j.mu.Unlock()

	origin := originOf(u)
	now := j.now()
	for _, c := range cookies {
		path := c.Path
		if path == "" {
			path = "/"
		}

		var err error
		if c.MaxAge < 0 || (!c.Expires.IsZero() && !c.Expires.After(now)) {
			err = j.db.DeleteCookie(origin, c.Name, path)
		} else {
			expires := c.Expires
			if c.MaxAge > 0 {
				expires = now.Add(time.Duration(c.MaxAge) * time.Second)
			}
			err = j.db.SaveCookie(StoredCookie{
				Origin:   origin,
				Name:     c.Name,
				Path:     path,
				Value:    c.Value,
				Expires:  expires,
				HTTPOnly: c.HttpOnly,
				Secure:   c.Secure,
			})
		}

		if err != nil {
			j.db.logger.Warn("cookie not persisted: %v", err)
			j.mu.Lock()
			j.lastErr = err
			j.mu.Unlock()
		}
	}
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.mem.Cookies(u)
}

// Err returns the last storage error seen by SetCookies.
func (j *Jar) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastErr
}

// Clear forgets every cookie for the origin of u, in memory and on disk.
func (j *Jar) Clear(u *url.URL) error {
	if _, err := j.db.DeleteOrigin(originOf(u)); err != nil {
		return err
	}
	return j.reload()
}

func originOf(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}
