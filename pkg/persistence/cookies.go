package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// StoredCookie is one persisted cookie and the origin it was set by.
type StoredCookie struct {
	Origin   string
	Name     string
	Path     string
	Value    string
	Expires  time.Time // zero for session cookies
	HTTPOnly bool
	Secure   bool
}

// HTTPCookie converts the record back into an *http.Cookie.
func (c StoredCookie) HTTPCookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Expires:  c.Expires,
		HttpOnly: c.HTTPOnly,
		Secure:   c.Secure,
	}
}

// SaveCookie inserts or replaces a cookie.
func (d *DB) SaveCookie(c StoredCookie) error {
	if c.Path == "" {
		c.Path = "/"
	}
	var expires any
	if !c.Expires.IsZero() {
		expires = c.Expires.Unix()
	}

	_, err := d.db.Exec(`
		INSERT INTO cookies (origin, name, path, value, expires_at, http_only, secure, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(origin, name, path) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			http_only = excluded.http_only,
			secure = excluded.secure,
			updated_at = CURRENT_TIMESTAMP`,
		c.Origin, c.Name, c.Path, c.Value, expires, c.HTTPOnly, c.Secure)
	if err != nil {
		return fmt.Errorf("failed to save cookie %s: %w", c.Name, err)
	}
	return nil
}

// GetCookie returns the cookie with the given key, or ErrNotFound.
func (d *DB) GetCookie(origin, name, path string) (*StoredCookie, error) {
	if path == "" {
		path = "/"
	}
	row := d.db.QueryRow(`
		SELECT origin, name, path, value, expires_at, http_only, secure
		FROM cookies WHERE origin = ? AND name = ? AND path = ?`, origin, name, path)

	c, err := scanCookie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cookie %s for %s: %w", name, origin, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListCookies returns every unexpired cookie, ordered by origin and name.
func (d *DB) ListCookies(now time.Time) ([]StoredCookie, error) {
	rows, err := d.db.Query(`
		SELECT origin, name, path, value, expires_at, http_only, secure
		FROM cookies
		WHERE expires_at IS NULL OR expires_at > ?
		ORDER BY origin, name, path`, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list cookies: %w", err)
	}
	defer rows.Close()

	var out []StoredCookie
	for rows.Next() {
		c, err := scanCookie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cookies: %w", err)
	}
	return out, nil
}

// DeleteCookie removes one cookie. Deleting a missing cookie is not an error.
func (d *DB) DeleteCookie(origin, name, path string) error {
	if path == "" {
		path = "/"
	}
	if _, err := d.db.Exec(`DELETE FROM cookies WHERE origin = ? AND name = ? AND path = ?`, origin, name, path); err != nil {
		return fmt.Errorf("failed to delete cookie %s: %w", name, err)
	}
	return nil
}

// DeleteOrigin removes every cookie stored for origin and returns how many were removed.
func (d *DB) DeleteOrigin(origin string) (int64, error) {
	res, err := d.db.Exec(`DELETE FROM cookies WHERE origin = ?`, origin)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cookies for %s: %w", origin, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// PurgeExpired removes cookies that expired before now.
func (d *DB) PurgeExpired(now time.Time) (int64, error) {
	res, err := d.db.Exec(`DELETE FROM cookies WHERE expires_at IS NOT NULL AND expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired cookies: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		d.logger.Debug("purged %d expired cookies", n)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCookie(row rowScanner) (*StoredCookie, error) {
	var (
		c       StoredCookie
		expires sql.NullInt64
	)
	if err := row.Scan(&c.Origin, &c.Name, &c.Path, &c.Value, &expires, &c.HTTPOnly, &c.Secure); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan cookie: %w", err)
	}
	if expires.Valid {
		c.Expires = time.Unix(expires.Int64, 0).UTC()
	}
	return &c, nil
}
