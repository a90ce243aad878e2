// Package auth carries the signed session cookie that identifies the current
// user by name, plus the middleware that decodes it into the request context.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"
)

type ctxKey string

const (
	sessionCookieName = "session"
	usernameCtxKey    = ctxKey("username")
)

// Sessions creates, reads and destroys the session of a browser.
type Sessions interface {
	Create(ctx context.Context, w http.ResponseWriter, username string) error
	Parse(r *http.Request) (string, bool)
	Clear(w http.ResponseWriter, r *http.Request)
}

// signer produces values of the form base64url(payload) "." base64url(hmac(payload)).
type signer struct {
	secret []byte
}

func (s signer) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (s signer) encode(payload string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." + s.sign(payload)
}

func (s signer) decode(value string) (string, bool) {
	encoded, sig, ok := strings.Cut(value, ".")
	if !ok || encoded == "" {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}
	payload := string(raw)
	if !hmac.Equal([]byte(sig), []byte(s.sign(payload))) {
		return "", false
	}
	return payload, true
}

// cookieJar writes and expires the session cookie.
type cookieJar struct {
	maxAge time.Duration
	secure bool
}

func (c cookieJar) set(w http.ResponseWriter, value string) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if c.maxAge > 0 {
		cookie.Expires = time.Now().Add(c.maxAge)
		cookie.MaxAge = int(c.maxAge.Seconds())
	}
	http.SetCookie(w, cookie)
}

func (c cookieJar) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func readCookie(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// CookieSessions keeps the username itself in the signed cookie.
// A maxAge of zero yields a browser-session cookie.
type CookieSessions struct {
	signer signer
	jar    cookieJar
}

// NewCookieSessions returns a cookie-only session store signed with secret.
func NewCookieSessions(secret []byte, maxAge time.Duration, secure bool) *CookieSessions {
	return &CookieSessions{signer: signer{secret: secret}, jar: cookieJar{maxAge: maxAge, secure: secure}}
}

// Create sets a signed cookie carrying the username.
func (s *CookieSessions) Create(_ context.Context, w http.ResponseWriter, username string) error {
	s.jar.set(w, s.signer.encode(username))
	return nil
}

// Parse validates the cookie and returns the username.
func (s *CookieSessions) Parse(r *http.Request) (string, bool) {
	value, ok := readCookie(r)
	if !ok {
		return "", false
	}
	return s.signer.decode(value)
}

// Clear expires the session cookie.
func (s *CookieSessions) Clear(w http.ResponseWriter, _ *http.Request) {
	s.jar.clear(w)
}

// WithUsername stores the session username in context.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameCtxKey, username)
}

// UsernameFromContext extracts the session username.
func UsernameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(usernameCtxKey).(string)
	return name, ok && name != ""
}

// Middleware attaches the session username to the request context if present.
func Middleware(sessions Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if name, ok := sessions.Parse(r); ok {
				r = r.WithContext(WithUsername(r.Context(), name))
			}
			next.ServeHTTP(w, r)
		})
	}
}
