// Package credstore persists the session credentials between runs, the way
// the browser variant of this app kept them in localStorage. One JSON file,
// four keys: token, refresh_token, csrf_token and the serialized user.
package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

type credentials struct {
	Token        string          `json:"token,omitempty"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	CSRFToken    string          `json:"csrf_token,omitempty"`
	User         json.RawMessage `json:"user,omitempty"`
}

// Store is a file-backed credential store. The zero value is not usable;
// construct with Open.
type Store struct {
	path string

	mu    sync.Mutex
	creds credentials
}

// Open loads the credential file if it exists. A missing file is a fresh
// (logged-out) store, not an error.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}

	if err := json.Unmarshal(raw, &s.creds); err != nil {
		return nil, fmt.Errorf("decoding credentials file: %w", err)
	}

	return s, nil
}

func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.creds.Token
}

func (s *Store) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.creds.RefreshToken
}

func (s *Store) CSRFToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.creds.CSRFToken
}

// User returns the persisted user payload, or nil when logged out.
func (s *Store) User() json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.creds.User
}

func (s *Store) SetAccessToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds.Token = token

	return s.flush()
}

func (s *Store) SetRefreshToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds.RefreshToken = token

	return s.flush()
}

func (s *Store) SetCSRFToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds.CSRFToken = token

	return s.flush()
}

func (s *Store) SetUser(user json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds.User = user

	return s.flush()
}

// SetSession stores the full token triple and user in one write, as produced
// by a successful login.
func (s *Store) SetSession(access, refresh string, user json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds.Token = access
	s.creds.RefreshToken = refresh
	s.creds.User = user

	return s.flush()
}

// Clear wipes every field and removes the file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = credentials{}

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing credentials file: %w", err)
	}

	return nil
}

func (s *Store) flush() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating credentials dir: %w", err)
	}

	raw, err := json.MarshalIndent(s.creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("writing credentials file: %w", err)
	}

	return nil
}
