package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pet-tracker/internal/api"
	"pet-tracker/internal/encryption"
	"pet-tracker/internal/tracker"
)

// Keys under which the session is persisted.
const (
	TokenKey = "authToken"
	UserKey  = "authUser"
)

// ErrNotLoggedIn is returned by operations that need a session when none is
// stored or the stored one has expired.
var ErrNotLoggedIn = errors.New("not logged in")

// Authenticator is the part of the API client the session needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (api.LoginResponse, error)
	Logout(ctx context.Context) error
	SetToken(token string)
}

// Manager owns the bearer token and the logged-in user. The token is sealed
// before it is written to the key-value store.
type Manager struct {
	auth   Authenticator
	kv     tracker.KeyValueStore
	sealer encryption.Sealer
	clock  tracker.Clock
	logger tracker.Logger

	mu    sync.RWMutex
	token string
	user  *api.User
}

// NewManager creates a Manager with no active session.
func NewManager(auth Authenticator, kv tracker.KeyValueStore, sealer encryption.Sealer, clock tracker.Clock, logger tracker.Logger) *Manager {
	if clock == nil {
		clock = tracker.RealClock{}
	}
	if logger == nil {
		logger = tracker.NewNopLogger()
	}
	return &Manager{auth: auth, kv: kv, sealer: sealer, clock: clock, logger: logger}
}

// Login authenticates, persists the session and installs the token on the
// API client.
func (m *Manager) Login(ctx context.Context, email, password string) (api.User, error) {
	res, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return api.User{}, fmt.Errorf("logging in: %w", err)
	}

	if !m.sealer.IsConfigured() {
		if err := m.sealer.Setup(); err != nil {
			return api.User{}, fmt.Errorf("setting up token encryption: %w", err)
		}
	}
	sealed, err := m.sealer.Seal(res.Token)
	if err != nil {
		return api.User{}, fmt.Errorf("sealing token: %w", err)
	}
	userJSON, err := json.Marshal(res.User)
	if err != nil {
		return api.User{}, fmt.Errorf("encoding user: %w", err)
	}
	if err := m.kv.Set(ctx, TokenKey, sealed); err != nil {
		return api.User{}, fmt.Errorf("saving token: %w", err)
	}
	if err := m.kv.Set(ctx, UserKey, string(userJSON)); err != nil {
		return api.User{}, fmt.Errorf("saving user: %w", err)
	}

	m.install(res.Token, &res.User)
	m.logger.Info("logged in", "user_id", res.User.ID)
	return res.User, nil
}

// Logout revokes the token on the server, ignoring any failure, and clears
// the stored session.
func (m *Manager) Logout(ctx context.Context) error {
	if m.Token() != "" {
		if err := m.auth.Logout(ctx); err != nil {
			m.logger.Debug("server logout failed, clearing local session anyway", "error", err)
		}
	}
	return m.clear(ctx)
}

// ForceLogout clears the stored session without contacting the server. It
// is used when the server rejects the token.
func (m *Manager) ForceLogout(ctx context.Context) error {
	m.logger.Warn("session rejected by server, logging out")
	return m.clear(ctx)
}

// Restore loads a previously stored session. It reports false, without
// error, when no usable session exists: one of the keys is missing, the
// token cannot be unsealed, or the token has expired. Unusable sessions are
// cleared.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	sealed, okToken, err := m.kv.Get(ctx, TokenKey)
	if err != nil {
		return false, fmt.Errorf("reading token: %w", err)
	}
	rawUser, okUser, err := m.kv.Get(ctx, UserKey)
	if err != nil {
		return false, fmt.Errorf("reading user: %w", err)
	}
	if !okToken || !okUser {
		return false, nil
	}

	token, err := m.sealer.Open(sealed)
	if err != nil {
		m.logger.Warn("stored token unreadable, discarding session", "error", err)
		return false, m.clear(ctx)
	}
	var user api.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		m.logger.Warn("stored user malformed, discarding session", "error", err)
		return false, m.clear(ctx)
	}
	if exp, ok := ExpiresAt(token); ok && !m.clock.Now().Before(exp) {
		m.logger.Info("stored session expired", "expired_at", exp)
		return false, m.clear(ctx)
	}

	m.install(token, &user)
	return true, nil
}

// Token returns the current bearer token, or "" when logged out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns the logged-in user, or nil.
func (m *Manager) User() *api.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// LoggedIn reports whether a token is installed.
func (m *Manager) LoggedIn() bool {
	return m.Token() != ""
}

func (m *Manager) install(token string, user *api.User) {
	m.mu.Lock()
	m.token = token
	m.user = user
	m.mu.Unlock()
	m.auth.SetToken(token)
}

func (m *Manager) clear(ctx context.Context) error {
	m.install("", nil)
	if err := m.kv.Remove(context.WithoutCancel(ctx), TokenKey, UserKey); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// ExpiresAt returns the exp claim of a JWT without verifying its signature.
// ok is false for tokens that are not JWTs or carry no exp claim.
func ExpiresAt(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
