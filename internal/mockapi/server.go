// Package mockapi is an in-memory development backend implementing the REST
// surface the POS client consumes: auth with JWT + CSRF tokens, customers,
// services, transactions with progress tracking, and reports. It exists so
// the TUI can be developed and the gateway tested without the production
// backend; it keeps no durable state.
package mockapi

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"

	"github.com/cucikilat/pos/internal/catalog"
	"github.com/cucikilat/pos/internal/order"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
	csrfTokenTTL    = 30 * time.Minute
)

type user struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	password string
}

type transaction struct {
	ID             string                `json:"id"`
	TransactionNo  string                `json:"transaction_no"`
	CustomerID     string                `json:"customer_id"`
	Customer       catalog.Customer      `json:"customer"`
	Items          []order.Item          `json:"items"`
	TotalAmount    int64                 `json:"total_amount"`
	PaymentMethod  order.PaymentMethod   `json:"payment_method"`
	CurrentStatus  order.Status          `json:"current_status"`
	Progress       []order.ProgressEntry `json:"progress"`
	EstimatedDone  time.Time             `json:"estimated_done"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	CompletedAt    *time.Time            `json:"completed_at,omitempty"`
	CompletionType string                `json:"completion_type,omitempty"`
}

type Server struct {
	secret []byte

	mu            sync.Mutex
	users         []user
	customers     []catalog.Customer
	services      []catalog.Service
	transactions  []*transaction
	refreshTokens map[string]string
	csrfTokens    map[string]time.Time
	customerSeq   int
	serviceSeq    int
	txSeq         int
}

func NewServer(jwtSecret string) *Server {
	s := &Server{
		secret:        []byte(jwtSecret),
		refreshTokens: make(map[string]string),
		csrfTokens:    make(map[string]time.Time),
	}
	s.seed()

	return s
}

// Router builds the full /api/v1 surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/csrf-token", s.handleCSRFToken)

		r.Group(func(r chi.Router) {
			r.Use(s.requireCSRF)
			r.Post("/auth/login", s.handleLogin)
			r.Post("/auth/refresh", s.handleRefresh)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Use(s.requireCSRF)

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/me", s.handleMe)

			r.Route("/customers", func(r chi.Router) {
				r.Get("/", s.handleListCustomers)
				r.Post("/", s.handleCreateCustomer)
				r.Put("/{id}", s.handleUpdateCustomer)
				r.Delete("/{id}", s.handleDeleteCustomer)
			})

			r.Route("/services", func(r chi.Router) {
				r.Get("/", s.handleListServices)
				r.Get("/categories", s.handleServiceCategories)
				r.Get("/active", s.handleActiveServices)
				r.Post("/", s.handleCreateService)
				r.Put("/{id}", s.handleUpdateService)
				r.Delete("/{id}", s.handleDeleteService)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", s.handleListTransactions)
				r.Post("/", s.handleCreateTransaction)
				r.Get("/no/{no}", s.handleGetTransactionByNo)
				r.Get("/{id}", s.handleGetTransaction)
				r.Get("/{id}/progress", s.handleGetProgress)
				r.Post("/{id}/progress", s.handleAddProgress)
				r.Patch("/{id}/status", s.handleUpdateStatus)
				r.Delete("/{id}/cancel", s.handleCancelTransaction)
			})

			r.Get("/progress/by-status/{status}", s.handleByStatus)
			r.Get("/progress/dashboard", s.handleDashboard)

			r.Get("/reports/summary", s.handleReportSummary)
			r.Get("/reports/financial", s.handleReportFinancial)
		})
	})

	return r
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		raw := strings.TrimPrefix(header, "Bearer ")

		claims := jwt.MapClaims{}

		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireCSRF enforces the anti-forgery token on state-changing methods.
func (s *Server) requireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		tok := r.Header.Get("X-CSRF-Token")

		s.mu.Lock()
		expiry, ok := s.csrfTokens[tok]
		s.mu.Unlock()

		if tok == "" || !ok || time.Now().After(expiry) {
			writeError(w, statusCSRFExpired, "CSRF token missing or expired")
			return
		}

		next.ServeHTTP(w, r)
	})
}
