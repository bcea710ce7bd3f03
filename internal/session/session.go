// Package session owns the access/refresh/CSRF token triple and the
// authenticated user for the lifetime of the process.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cucikilat/pos/internal/api"
	"github.com/cucikilat/pos/internal/credstore"
)

// csrfFetchTimeout bounds the detached CSRF prefetch started by Initialize.
const csrfFetchTimeout = 15 * time.Second

// User is the authenticated staff member.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
}

// Credentials are the login form fields.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Navigator moves the UI between the login screen and the authenticated
// home screen. Both calls must be idempotent.
type Navigator interface {
	ToLogin()
	ToHome()
}

// Manager holds exactly one live session per process.
type Manager struct {
	client *api.Client
	store  *credstore.Store
	nav    Navigator

	mu   sync.Mutex
	user *User
}

func NewManager(client *api.Client, store *credstore.Store, nav Navigator) *Manager {
	return &Manager{client: client, store: store, nav: nav}
}

// Initialize restores a persisted session at startup. An access token whose
// JWT expiry has already passed is dropped, forcing a fresh login or refresh.
// A missing CSRF token is fetched asynchronously; failure is non-fatal.
func (m *Manager) Initialize() {
	if tok := m.store.AccessToken(); tok != "" && tokenExpired(tok) {
		slog.Info("persisted access token expired, dropping")

		if err := m.store.SetAccessToken(""); err != nil {
			slog.Warn("failed to drop expired token", "error", err)
		}
	}

	if raw := m.store.User(); len(raw) > 0 {
		var u User
		if err := json.Unmarshal(raw, &u); err != nil {
			slog.Warn("failed to decode persisted user", "error", err)
		} else {
			m.mu.Lock()
			m.user = &u
			m.mu.Unlock()
		}
	}

	if m.store.CSRFToken() == "" {
		// Detached from the caller's context: Initialize returns
		// immediately and the caller's cancel must not kill the fetch.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), csrfFetchTimeout)
			defer cancel()

			m.RefreshCSRFToken(ctx)
		}()
	}
}

// Login obtains a CSRF token first (the login endpoint itself requires one),
// then exchanges credentials for the token triple. On success the session is
// persisted and the UI navigates home. On failure no state is mutated.
func (m *Manager) Login(ctx context.Context, creds Credentials) error {
	if _, err := m.client.FetchCSRFToken(ctx); err != nil {
		return fmt.Errorf("obtaining csrf token: %w", err)
	}

	var data struct {
		AccessToken  string          `json:"access_token"`
		RefreshToken string          `json:"refresh_token"`
		ExpiresIn    int             `json:"expires_in"`
		User         json.RawMessage `json:"user"`
	}

	if err := m.client.Post(ctx, "/auth/login", creds, &data); err != nil {
		return err
	}

	var u User
	if err := json.Unmarshal(data.User, &u); err != nil {
		return fmt.Errorf("decoding user: %w", err)
	}

	if err := m.store.SetSession(data.AccessToken, data.RefreshToken, data.User); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}

	m.mu.Lock()
	m.user = &u
	m.mu.Unlock()

	if m.nav != nil {
		m.nav.ToHome()
	}

	return nil
}

// Logout invalidates the session remotely on a best-effort basis, then
// unconditionally clears all session state and navigates to login.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.client.Post(ctx, "/auth/logout", nil, nil); err != nil {
		slog.Warn("remote logout failed", "error", err)
	}

	if err := m.store.Clear(); err != nil {
		slog.Warn("failed to clear credentials", "error", err)
	}

	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()

	if m.nav != nil {
		m.nav.ToLogin()
	}
}

// RefreshCSRFToken fetches and persists a new CSRF token. It never fails the
// caller: on error the store simply keeps no token and requests proceed
// without one.
func (m *Manager) RefreshCSRFToken(ctx context.Context) {
	if _, err := m.client.FetchCSRFToken(ctx); err != nil {
		slog.Warn("csrf token refresh failed", "error", err)
	}
}

// CurrentUser fetches the profile from the backend. An expired session
// triggers a full logout.
func (m *Manager) CurrentUser(ctx context.Context) (*User, error) {
	if m.store.AccessToken() == "" {
		return nil, fmt.Errorf("not authenticated")
	}

	var u User
	if err := m.client.Get(ctx, "/auth/me", nil, &u); err != nil {
		if errors.Is(err, api.ErrSessionExpired) {
			m.Logout(ctx)
		}

		return nil, err
	}

	m.mu.Lock()
	m.user = &u
	m.mu.Unlock()

	return &u, nil
}

// User returns the locally cached user, nil when logged out.
func (m *Manager) User() *User {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.user
}

// Authenticated reports whether an access token is present.
func (m *Manager) Authenticated() bool {
	return m.store.AccessToken() != ""
}

// tokenExpired inspects the JWT exp claim without verifying the signature;
// verification is the backend's job, this only avoids a guaranteed 401.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}

	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Not a JWT we can read. Let the backend decide.
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return exp.Before(time.Now())
}
