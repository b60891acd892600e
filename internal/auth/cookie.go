package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
)

const (
	SessionCookieName = "gymlog_session"
	tokenValueKey     = "token"
)

// CookieStore keeps the session token in a signed cookie.
type CookieStore struct {
	store *sessions.CookieStore
}

func NewCookieStore(hashKey []byte, maxAge time.Duration, secure bool) *CookieStore {
	store := sessions.NewCookieStore(hashKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieStore{store: store}
}

func (c *CookieStore) SaveToken(w http.ResponseWriter, r *http.Request, token string) error {
	// a broken or foreign cookie yields a fresh session, which is what we want here
	session, _ := c.store.Get(r, SessionCookieName)
	session.Values[tokenValueKey] = token
	return session.Save(r, w)
}

func (c *CookieStore) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := c.store.Get(r, SessionCookieName)
	delete(session.Values, tokenValueKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

func (c *CookieStore) Token(r *http.Request) string {
	session, err := c.store.Get(r, SessionCookieName)
	if err != nil {
		return ""
	}
	token, _ := session.Values[tokenValueKey].(string)
	return token
}

// TokenFromRequest reads the bearer token from the Authorization header and
// falls back to the session cookie.
func (c *CookieStore) TokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c == nil {
		return ""
	}
	return c.Token(r)
}
