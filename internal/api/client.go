package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StatusCSRFExpired is the non-standard status the backend uses for an
// expired or invalid CSRF token.
const StatusCSRFExpired = 419

// Client implements Gateway against the REST backend.
type Client struct {
	baseURL string
	http    *http.Client
	creds   CredentialStore
	nav     Navigator
}

var _ Gateway = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration, creds CredentialStore, nav Navigator) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		creds:   creds,
		nav:     nav,
	}
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	_, err := c.call(ctx, http.MethodGet, path, query, nil, out)
	return err
}

func (c *Client) GetPage(ctx context.Context, path string, query url.Values, out any) (*Pagination, error) {
	return c.call(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	_, err := c.call(ctx, http.MethodPost, path, nil, body, out)
	return err
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	_, err := c.call(ctx, http.MethodPut, path, nil, body, out)
	return err
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	_, err := c.call(ctx, http.MethodPatch, path, nil, body, out)
	return err
}

func (c *Client) Delete(ctx context.Context, path string, body, out any) error {
	_, err := c.call(ctx, http.MethodDelete, path, nil, body, out)
	return err
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) (*Pagination, error) {
	return c.attempt(ctx, method, path, query, body, out, false)
}

// attempt issues the request and runs the recovery protocol. The retried
// flag belongs to this call chain alone, so concurrent requests never share
// retry state and no request is ever retried more than once.
func (c *Client) attempt(ctx context.Context, method, path string, query url.Values, body, out any, retried bool) (*Pagination, error) {
	resp, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return nil, fmt.Errorf("requesting %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response for %s %s: %w", method, path, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return decodeEnvelope(resp.StatusCode, raw, out)
	}

	apiErr := decodeError(resp.StatusCode, raw)

	if !retried && isCSRFFailure(resp.StatusCode, apiErr) {
		if tok, csrfErr := c.FetchCSRFToken(ctx); csrfErr == nil && tok != "" {
			return c.attempt(ctx, method, path, query, body, out, true)
		}
	}

	if resp.StatusCode == http.StatusUnauthorized && !isCredentialEndpoint(path) {
		if retried {
			c.expireSession()
			return nil, ErrSessionExpired
		}

		// Best effort: a stale CSRF token would make the refresh
		// exchange itself fail.
		if _, csrfErr := c.FetchCSRFToken(ctx); csrfErr != nil {
			slog.Warn("csrf token fetch failed during token refresh", "error", csrfErr)
		}

		if refreshErr := c.refreshAccessToken(ctx); refreshErr != nil {
			c.expireSession()
			return nil, ErrSessionExpired
		}

		return c.attempt(ctx, method, path, query, body, out, true)
	}

	return nil, apiErr
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if tok := c.creds.AccessToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	if tok := c.creds.CSRFToken(); tok != "" {
		req.Header.Set("X-CSRF-Token", tok)
	}

	return c.http.Do(req)
}

// FetchCSRFToken obtains a fresh CSRF token and persists it. The endpoint
// responds with a bare {csrf_token, expires_in} body, not the usual envelope.
func (c *Client) FetchCSRFToken(ctx context.Context) (string, error) {
	resp, err := c.send(ctx, http.MethodPost, "/auth/csrf-token", nil, nil)
	if err != nil {
		return "", fmt.Errorf("requesting csrf token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("csrf token endpoint returned %d", resp.StatusCode)
	}

	var out struct {
		CSRFToken string `json:"csrf_token"`
		ExpiresIn int    `json:"expires_in"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding csrf token: %w", err)
	}

	if out.CSRFToken == "" {
		return "", fmt.Errorf("csrf token endpoint returned an empty token")
	}

	if err := c.creds.SetCSRFToken(out.CSRFToken); err != nil {
		return "", fmt.Errorf("persisting csrf token: %w", err)
	}

	return out.CSRFToken, nil
}

func (c *Client) refreshAccessToken(ctx context.Context) error {
	refresh := c.creds.RefreshToken()
	if refresh == "" {
		return fmt.Errorf("no refresh token")
	}

	body := map[string]string{"refresh_token": refresh}

	resp, err := c.send(ctx, http.MethodPost, "/auth/refresh", nil, body)
	if err != nil {
		return fmt.Errorf("requesting token refresh: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading refresh response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp.StatusCode, raw)
	}

	var data struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}

	if _, err := decodeEnvelope(resp.StatusCode, raw, &data); err != nil {
		return err
	}

	if data.AccessToken == "" {
		return fmt.Errorf("refresh response carried no access token")
	}

	if err := c.creds.SetAccessToken(data.AccessToken); err != nil {
		return fmt.Errorf("persisting access token: %w", err)
	}

	return nil
}

func (c *Client) expireSession() {
	if err := c.creds.Clear(); err != nil {
		slog.Warn("failed to clear credentials", "error", err)
	}

	if c.nav != nil {
		c.nav.ToLogin()
	}
}

func decodeEnvelope(status int, raw []byte, out any) (*Pagination, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decoding response envelope: %w", err)
	}

	if !env.Success {
		return nil, &Error{Status: status, Message: env.Message, Errors: env.Errors}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decoding response data: %w", err)
		}
	}

	return env.Pagination, nil
}

func decodeError(status int, raw []byte) *Error {
	apiErr := &Error{Status: status}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		apiErr.Message = env.Message
		apiErr.Errors = env.Errors
	}

	return apiErr
}

// isCredentialEndpoint reports whether a 401 from this path means the
// submitted credentials were rejected rather than that the access token
// went stale. Refreshing and retrying would only mask the backend's message.
func isCredentialEndpoint(path string) bool {
	return path == "/auth/login" || path == "/auth/refresh"
}

func isCSRFFailure(status int, err *Error) bool {
	if status == StatusCSRFExpired {
		return true
	}

	return strings.Contains(err.Message, "CSRF")
}
