package mockapi

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func (s *Server) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	tok := uuid.NewString()

	s.mu.Lock()
	s.csrfTokens[tok] = time.Now().Add(csrfTokenTTL)
	s.mu.Unlock()

	// Bare body, not the envelope; the client depends on this shape.
	writeJSON(w, http.StatusOK, map[string]any{
		"csrf_token": tok,
		"expires_in": int(csrfTokenTTL.Seconds()),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if !decodeBody(w, r, &creds) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username != creds.Username || u.password != creds.Password {
			continue
		}

		access, err := s.signToken(u)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to sign token")
			return
		}

		refresh := uuid.NewString()
		s.refreshTokens[refresh] = u.Username

		writeData(w, http.StatusOK, map[string]any{
			"access_token":  access,
			"refresh_token": refresh,
			"expires_in":    int(accessTokenTTL.Seconds()),
			"user":          u,
		})

		return
	}

	writeError(w, http.StatusUnauthorized, "invalid username or password")
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}

	if !decodeBody(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	username, ok := s.refreshTokens[body.RefreshToken]
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	for _, u := range s.users {
		if u.Username == username {
			access, err := s.signToken(u)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to sign token")
				return
			}

			writeData(w, http.StatusOK, map[string]any{
				"access_token": access,
				"expires_in":   int(accessTokenTTL.Seconds()),
			})

			return
		}
	}

	writeError(w, http.StatusUnauthorized, "unknown user")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, nil)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	// Single-user fixture: always the seeded admin.
	s.mu.Lock()
	u := s.users[0]
	s.mu.Unlock()

	writeData(w, http.StatusOK, u)
}

func (s *Server) signToken(u user) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"sub":  u.Username,
		"name": u.Name,
		"role": u.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(accessTokenTTL).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
