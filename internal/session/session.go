// Package session holds the signed-in identity for the rest of the
// engine. "No user" is a first-class mode: every consumer checks
// CurrentUser and degrades instead of assuming a session exists.
package session

import (
	"errors"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated is returned by operations that require a signed-in
// user (rating submission). Callers redirect to sign-in.
var ErrUnauthenticated = errors.New("not signed in")

// User is the identity the auth endpoints hand back.
type User struct {
	ID       int
	Username string
}

type claims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Manager owns the current user and bearer token. Logout hooks let
// session-scoped caches reset themselves without the manager knowing
// about them.
type Manager struct {
	mu       sync.RWMutex
	user     *User
	token    string
	onLogout []func()
}

func NewManager() *Manager {
	return &Manager{}
}

// Establish records a session from an auth response. The user identity
// is taken from the token's claims when they decode (the token is minted
// and verified server-side; the client only reads it), falling back to
// the explicitly provided identity otherwise.
func (m *Manager) Establish(token string, fallback User) {
	user := fallback
	if decoded := decodeClaims(token); decoded != nil {
		user = *decoded
	}

	m.mu.Lock()
	m.user = &user
	m.token = token
	m.mu.Unlock()
}

// decodeClaims reads the user identity out of the JWT without verifying
// the signature; verification is the server's job.
func decodeClaims(token string) *User {
	var c claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &c); err != nil {
		return nil
	}
	if c.UserID == 0 {
		return nil
	}
	return &User{ID: c.UserID, Username: c.Username}
}

// CurrentUser returns the signed-in user, or ok=false in anonymous mode.
func (m *Manager) CurrentUser() (User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return User{}, false
	}
	return *m.user, true
}

// Token returns the bearer token for the fetch gateway, empty when
// anonymous.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// OnLogout registers a hook invoked synchronously when the session ends.
func (m *Manager) OnLogout(fn func()) {
	m.mu.Lock()
	m.onLogout = append(m.onLogout, fn)
	m.mu.Unlock()
}

// Logout clears the session and runs the registered hooks, so no
// per-user state leaks into a subsequent anonymous or different-user
// session.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.user = nil
	m.token = ""
	hooks := m.onLogout
	m.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}
