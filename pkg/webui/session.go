package webui

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/hkdf"

	"todofront/pkg/config"
	"todofront/pkg/logx"
)

// HKDF info strings for the visitor cookie keys.
const (
	hashKeyInfo  = "todofront/visitor-cookie/hmac"
	blockKeyInfo = "todofront/visitor-cookie/aes"
)

const visitorIDKey = "visitor_id"

type visitorKey struct{}

// deriveKeys expands secret into a 64-byte HMAC key and a 32-byte AES key.
func deriveKeys(secret []byte) (hashKey, blockKey []byte, err error) {
	hashKey = make([]byte, 64)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(hashKeyInfo)), hashKey); err != nil {
		return nil, nil, fmt.Errorf("failed to derive hash key: %w", err)
	}
	blockKey = make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(blockKeyInfo)), blockKey); err != nil {
		return nil, nil, fmt.Errorf("failed to derive block key: %w", err)
	}
	return hashKey, blockKey, nil
}

// newSessionStore builds the signed and encrypted visitor cookie store. An
// empty secret is replaced by a random one, so visitor cookies do not survive
// a restart.
func newSessionStore(cfg *config.Config, logger *logx.Logger) (*sessions.CookieStore, error) {
	secret := []byte(cfg.Session.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		logger.Warn("⚠️ session.secret is not set; generated a random secret, visitor cookies will not survive a restart")
	}

	hashKey, blockKey, err := deriveKeys(secret)
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Session.IdleTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Server.Env == config.EnvProduction,
		SameSite: http.SameSiteLaxMode,
	}
	return store, nil
}

// visitorID returns the id stored in the visitor cookie, issuing a new one
// when the cookie is missing or cannot be decoded. The cookie is re-saved on
// every request to slide its expiry.
func (s *Server) visitorID(w http.ResponseWriter, r *http.Request) (string, error) {
	sess, err := s.sessions.Get(r, s.cfg.Session.CookieName)
	if err != nil {
		// A cookie signed with an old secret decodes with an error but still
		// yields a fresh session.
		s.logger.Debug("discarding undecodable visitor cookie: %v", err)
	}

	id, _ := sess.Values[visitorIDKey].(string)
	if _, parseErr := uuid.Parse(id); parseErr != nil {
		id = uuid.NewString()
		sess.Values[visitorIDKey] = id
	}
	if err := sess.Save(r, w); err != nil {
		return "", fmt.Errorf("failed to save visitor session: %w", err)
	}
	return id, nil
}

// withVisitor attaches the caller's Visitor to the request context.
func (s *Server) withVisitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := s.visitorID(w, r)
		if err != nil {
			s.logger.Error("%v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		v, err := s.visitors.Get(id)
		if err != nil {
			s.logger.Error("failed to create visitor %s: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		ctx := logx.WithComponent(r.Context(), "visitor/"+shortID(id))
		ctx = context.WithValue(ctx, visitorKey{}, v)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

var errNoVisitor = errors.New("webui: no visitor in request context")

func visitorFrom(r *http.Request) (*Visitor, error) {
	v, ok := r.Context().Value(visitorKey{}).(*Visitor)
	if !ok {
		return nil, errNoVisitor
	}
	return v, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
