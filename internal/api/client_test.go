package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cucikilat/pos/internal/api"
)

// fakeCreds is a stateful in-memory CredentialStore. The gomock variant
// cannot model the token mutations the recovery protocol performs.
type fakeCreds struct {
	mu      sync.Mutex
	access  string
	refresh string
	csrf    string
	cleared bool
}

func (f *fakeCreds) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.access
}

func (f *fakeCreds) RefreshToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.refresh
}

func (f *fakeCreds) CSRFToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.csrf
}

func (f *fakeCreds) SetAccessToken(tok string) error {
	f.mu.Lock()
	f.access = tok
	f.mu.Unlock()

	return nil
}

func (f *fakeCreds) SetCSRFToken(tok string) error {
	f.mu.Lock()
	f.csrf = tok
	f.mu.Unlock()

	return nil
}

func (f *fakeCreds) Clear() error {
	f.mu.Lock()
	f.access, f.refresh, f.csrf = "", "", ""
	f.cleared = true
	f.mu.Unlock()

	return nil
}

func envelope(t *testing.T, data any) []byte {
	t.Helper()

	raw, err := json.Marshal(data)
	require.NoError(t, err)

	body, err := json.Marshal(api.Envelope{Success: true, Data: raw})
	require.NoError(t, err)

	return body
}

func writeEnvelope(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(envelope(t, data))
}

func writeFailure(t *testing.T, w http.ResponseWriter, status int, message string) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body, err := json.Marshal(api.Envelope{Success: false, Message: message})
	require.NoError(t, err)

	_, _ = w.Write(body)
}

func TestClient_Get_DecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customers", r.URL.Path)
		assert.Equal(t, "Bearer access-token", r.Header.Get("Authorization"))
		assert.Equal(t, "csrf-token", r.Header.Get("X-CSRF-Token"))

		writeEnvelope(t, w, map[string]string{"name": "Siti"})
	}))
	defer srv.Close()

	creds := &fakeCreds{access: "access-token", csrf: "csrf-token"}
	client := api.NewClient(srv.URL, time.Second, creds, nil)

	var out struct {
		Name string `json:"name"`
	}

	err := client.Get(context.Background(), "/customers", nil, &out)

	require.NoError(t, err)
	assert.Equal(t, "Siti", out.Name)
}

func TestClient_GetPage_ReturnsPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))

		body, err := json.Marshal(api.Envelope{
			Success:    true,
			Data:       json.RawMessage(`[{"name":"a"},{"name":"b"}]`),
			Pagination: &api.Pagination{Total: 12, Page: 2, PerPage: 2, TotalPages: 6},
		})
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, time.Second, &fakeCreds{}, nil)

	var out []struct {
		Name string `json:"name"`
	}

	page, err := client.GetPage(context.Background(), "/customers", url.Values{"page": {"2"}}, &out)

	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Equal(t, 12, page.Total)
	assert.Len(t, out, 2)
}

func TestClient_CSRFExpired_RefreshesTokenAndRetriesOnce(t *testing.T) {
	var calls, csrfCalls int

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/csrf-token", func(w http.ResponseWriter, r *http.Request) {
		csrfCalls++
		_, _ = w.Write([]byte(`{"csrf_token":"fresh-csrf","expires_in":7200}`))
	})
	mux.HandleFunc("POST /transactions", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("X-CSRF-Token") != "fresh-csrf" {
			writeFailure(t, w, api.StatusCSRFExpired, "CSRF token mismatch")
			return
		}

		writeEnvelope(t, w, map[string]string{"id": "tx-1"})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	creds := &fakeCreds{access: "tok", csrf: "stale"}
	client := api.NewClient(srv.URL, time.Second, creds, nil)

	var out struct {
		ID string `json:"id"`
	}

	err := client.Post(context.Background(), "/transactions", map[string]string{"customer_id": "c1"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "tx-1", out.ID)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, csrfCalls)
	assert.Equal(t, "fresh-csrf", creds.CSRFToken())
}

func TestClient_CSRFMessage_TriggersRecoveryWithoutStatus419(t *testing.T) {
	var calls int

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/csrf-token", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"csrf_token":"fresh-csrf","expires_in":7200}`))
	})
	mux.HandleFunc("DELETE /services/s1", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			writeFailure(t, w, http.StatusForbidden, "CSRF token expired")
			return
		}

		writeEnvelope(t, w, nil)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := api.NewClient(srv.URL, time.Second, &fakeCreds{access: "tok"}, nil)

	err := client.Delete(context.Background(), "/services/s1", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestClient_Unauthorized_RefreshesAccessTokenAndRetriesOnce(t *testing.T) {
	var calls, refreshCalls int

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/csrf-token", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"csrf_token":"fresh-csrf","expires_in":7200}`))
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++

		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refresh-1", body.RefreshToken)

		writeEnvelope(t, w, map[string]any{"access_token": "access-2", "expires_in": 900})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("Authorization") != "Bearer access-2" {
			writeFailure(t, w, http.StatusUnauthorized, "Unauthenticated")
			return
		}

		writeEnvelope(t, w, map[string]string{"username": "admin"})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	creds := &fakeCreds{access: "access-1", refresh: "refresh-1"}
	client := api.NewClient(srv.URL, time.Second, creds, nil)

	var out struct {
		Username string `json:"username"`
	}

	err := client.Get(context.Background(), "/auth/me", nil, &out)

	require.NoError(t, err)
	assert.Equal(t, "admin", out.Username)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, refreshCalls)
	assert.Equal(t, "access-2", creds.AccessToken())
}

func TestClient_UnauthorizedAfterRetry_ExpiresSession(t *testing.T) {
	var calls int

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/csrf-token", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"csrf_token":"fresh-csrf","expires_in":7200}`))
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, map[string]any{"access_token": "still-bad", "expires_in": 900})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeFailure(t, w, http.StatusUnauthorized, "Unauthenticated")
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctrl := gomock.NewController(t)
	nav := api.NewMockNavigator(ctrl)
	nav.EXPECT().ToLogin()

	creds := &fakeCreds{access: "access-1", refresh: "refresh-1"}
	client := api.NewClient(srv.URL, time.Second, creds, nav)

	err := client.Get(context.Background(), "/auth/me", nil, nil)

	assert.ErrorIs(t, err, api.ErrSessionExpired)
	assert.Equal(t, 2, calls, "a request is retried at most once")
	assert.True(t, creds.cleared)
	assert.Empty(t, creds.AccessToken())
}

func TestClient_Unauthorized_RefreshFailureExpiresSession(t *testing.T) {
	var calls int

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/csrf-token", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"csrf_token":"fresh-csrf","expires_in":7200}`))
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeFailure(t, w, http.StatusUnauthorized, "Invalid refresh token")
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeFailure(t, w, http.StatusUnauthorized, "Unauthenticated")
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctrl := gomock.NewController(t)
	nav := api.NewMockNavigator(ctrl)
	nav.EXPECT().ToLogin()

	creds := &fakeCreds{access: "access-1", refresh: "refresh-1"}
	client := api.NewClient(srv.URL, time.Second, creds, nav)

	err := client.Get(context.Background(), "/auth/me", nil, nil)

	assert.ErrorIs(t, err, api.ErrSessionExpired)
	assert.Equal(t, 1, calls, "the original request is not retried when refresh fails")
	assert.True(t, creds.cleared)
}

func TestClient_RejectedLogin_PassesThroughWithoutRecovery(t *testing.T) {
	var loginCalls, refreshCalls int

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/csrf-token", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"csrf_token":"fresh-csrf","expires_in":7200}`))
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		writeEnvelope(t, w, map[string]string{"access_token": "access-2"})
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		loginCalls++
		writeFailure(t, w, http.StatusUnauthorized, "Invalid credentials")
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctrl := gomock.NewController(t)
	nav := api.NewMockNavigator(ctrl)
	// No ToLogin expectation: a wrong password must not expire the session.

	// A refresh token from a previous session is present, so only the path
	// exclusion keeps the recovery protocol out of the way.
	creds := &fakeCreds{csrf: "csrf-1", refresh: "refresh-1"}
	client := api.NewClient(srv.URL, time.Second, creds, nav)

	err := client.Post(context.Background(), "/auth/login", map[string]string{"username": "admin", "password": "wrong"}, nil)

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.NotErrorIs(t, err, api.ErrSessionExpired)

	assert.Equal(t, 1, loginCalls, "a rejected login is not retried")
	assert.Zero(t, refreshCalls)
	assert.False(t, creds.cleared)
}

func TestClient_ValidationError_PassesThroughWithoutRetry(t *testing.T) {
	var calls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)

		body, err := json.Marshal(api.Envelope{
			Success: false,
			Message: "Validation failed",
			Errors:  map[string][]string{"phone": {"phone number must be unique"}},
		})
		require.NoError(t, err)

		_, _ = w.Write(body)
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, time.Second, &fakeCreds{access: "tok"}, nil)

	err := client.Post(context.Background(), "/customers", map[string]string{"name": "x"}, nil)

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "Validation failed", apiErr.Message)
	assert.Equal(t, []string{"phone number must be unique"}, apiErr.Errors["phone"])
	assert.Equal(t, 1, calls)
}

func TestClient_FailedEnvelope_IsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := json.Marshal(api.Envelope{Success: false, Message: "internal mishap"})
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, time.Second, &fakeCreds{}, nil)

	err := client.Get(context.Background(), "/reports/summary", nil, nil)

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "internal mishap", apiErr.Message)
}

func TestClient_FetchCSRFToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/csrf-token", r.URL.Path)

		_, _ = w.Write([]byte(`{"csrf_token":"abc","expires_in":7200}`))
	}))
	defer srv.Close()

	creds := &fakeCreds{}
	client := api.NewClient(srv.URL, time.Second, creds, nil)

	tok, err := client.FetchCSRFToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
	assert.Equal(t, "abc", creds.CSRFToken())
}
