// Package api is the single outbound request pipeline. Every call to the
// laundry backend goes through Client, which attaches the bearer and CSRF
// tokens and recovers from token expiry before errors reach the caller.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// ErrSessionExpired is returned when the token refresh chain fails and the
// session has been cleared. Callers should treat it as "user logged out".
var ErrSessionExpired = errors.New("session expired")

// Envelope is the backend's uniform response body.
type Envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message,omitempty"`
	Data       json.RawMessage     `json:"data,omitempty"`
	Errors     map[string][]string `json:"errors,omitempty"`
	Pagination *Pagination         `json:"pagination,omitempty"`
}

// Pagination describes a paginated list response.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

// Error is a non-2xx response with a structured body.
type Error struct {
	Status  int
	Message string
	Errors  map[string][]string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
	}

	return fmt.Sprintf("server error (%d): %s", e.Status, http.StatusText(e.Status))
}

// CredentialStore holds the persisted token triple consulted on every
// request. Implementations must tolerate missing values (empty strings).
type CredentialStore interface {
	AccessToken() string
	RefreshToken() string
	CSRFToken() string
	SetAccessToken(token string) error
	SetCSRFToken(token string) error
	Clear() error
}

// Navigator redirects the UI to the login route after an irrecoverable auth
// failure. Implementations must be idempotent.
type Navigator interface {
	ToLogin()
}

//go:generate mockgen -source=api.go -destination=gateway_mock.go -package=api

// Gateway is the request surface domain stores depend on.
type Gateway interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	GetPage(ctx context.Context, path string, query url.Values, out any) (*Pagination, error)
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, body, out any) error
}
