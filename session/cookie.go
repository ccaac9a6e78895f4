package session

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/hkdf"
)

const (
	// CookieName is the name of the cookie that carries the session id
	CookieName = "quickstart_session"

	idKey    = "id"
	hkdfInfo = "quickstart session cookie"
)

// Binder ties a browser to a session id through a signed and encrypted cookie.
// The cookie holds nothing but the id; session data stays server-side.
type Binder struct {
	cookies *sessions.CookieStore
}

// NewBinder derives the cookie keys from secret. An empty secret gets a random one,
// so cookies do not survive a restart (neither does the in-memory Store).
func NewBinder(secret string, ttl time.Duration, secure bool) (*Binder, error) {
	master := []byte(secret)
	if secret == "" {
		log.Warn().Msg("SESSION_SECRET not set, using a random session key")
		master = make([]byte, 32)
		if _, err := rand.Read(master); err != nil {
			return nil, fmt.Errorf("failed to generate session key: %w", err)
		}
	}

	keys := hkdf.New(sha256.New, master, nil, []byte(hkdfInfo))
	hashKey := make([]byte, 64)
	blockKey := make([]byte, 32)
	if _, err := io.ReadFull(keys, hashKey); err != nil {
		return nil, fmt.Errorf("failed to derive session hash key: %w", err)
	}
	if _, err := io.ReadFull(keys, blockKey); err != nil {
		return nil, fmt.Errorf("failed to derive session block key: %w", err)
	}

	cookies := sessions.NewCookieStore(hashKey, blockKey)
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Binder{cookies: cookies}, nil
}

// ID returns the browser's session id, issuing a new one (and its cookie) when the
// request carries none or an invalid one.
func (b *Binder) ID(w http.ResponseWriter, r *http.Request) (string, error) {
	if id, ok := b.Lookup(r); ok {
		return id, nil
	}

	// A cookie that fails to decode yields a fresh session, which is what we want
	sess, _ := b.cookies.Get(r, CookieName)
	id := uuid.NewString()
	sess.Values[idKey] = id
	if err := sess.Save(r, w); err != nil {
		return "", fmt.Errorf("failed to save session cookie: %w", err)
	}
	return id, nil
}

// Lookup returns the session id carried by the request, if any
func (b *Binder) Lookup(r *http.Request) (string, bool) {
	sess, err := b.cookies.Get(r, CookieName)
	if err != nil {
		return "", false
	}
	id, ok := sess.Values[idKey].(string)
	return id, ok && id != ""
}
