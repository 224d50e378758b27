package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/janus/pkg/middleware"
	"github.com/platinummonkey/janus/pkg/observability"
)

// Server represents our API server
type Server struct {
	router    *mux.Router
	tokens    TokenService
	directory DirectoryService
	users     UserStore
	resolver  Resolver
	requests  RequestService
	auth      *middleware.Authenticator
	health    *observability.HealthChecker
	metrics   *observability.Metrics
	logger    *observability.Logger
}

// Deps bundles the components the server routes to
type Deps struct {
	Tokens    TokenService
	Directory DirectoryService
	Users     UserStore
	Resolver  Resolver
	Requests  RequestService
	Auth      *middleware.Authenticator
	Health    *observability.HealthChecker
	Metrics   *observability.Metrics
	Logger    *observability.Logger
}

// NewServer creates a new API server
func NewServer(deps Deps) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		tokens:    deps.Tokens,
		directory: deps.Directory,
		users:     deps.Users,
		resolver:  deps.Resolver,
		requests:  deps.Requests,
		auth:      deps.Auth,
		health:    deps.Health,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// Public routes
	s.router.HandleFunc("/auth/login", s.login).Methods("POST")
	s.router.HandleFunc("/auth/register", s.register).Methods("POST")
	s.router.HandleFunc("/auth/refresh", s.refresh).Methods("POST")
	s.router.HandleFunc("/account-requests", s.submitAccountRequest).Methods("POST")

	if s.health != nil {
		s.router.HandleFunc("/health/live", s.health.Liveness).Methods("GET")
		s.router.HandleFunc("/health/ready", s.health.Readiness).Methods("GET")
	}
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}

	// Authenticated routes
	secured := s.router.NewRoute().Subrouter()
	secured.Use(s.auth.Require)

	secured.HandleFunc("/users", s.listUsers).Methods("GET")
	secured.HandleFunc("/users/me", s.me).Methods("GET")
	secured.HandleFunc("/users/{id}", s.getUser).Methods("GET")
	secured.HandleFunc("/users/{id}", s.updateProfile).Methods("PATCH")
	secured.HandleFunc("/users/{id}", s.deleteUser).Methods("DELETE")
	secured.HandleFunc("/users/{id}/identity", s.updateIdentity).Methods("PATCH")
	secured.HandleFunc("/users/{id}/password", s.setPassword).Methods("PUT", "PATCH")
	secured.HandleFunc("/users/{id}/status", s.setStatus).Methods("PUT", "PATCH")
	secured.HandleFunc("/users/{id}/roles", s.assignRoles).Methods("PUT", "PATCH")

	secured.HandleFunc("/account-requests", s.listAccountRequests).Methods("GET")
	secured.HandleFunc("/account-requests/pending", s.listPendingAccountRequests).Methods("GET")
	secured.HandleFunc("/account-requests/{id}", s.getAccountRequest).Methods("GET")
	secured.HandleFunc("/account-requests/{id}/approve", s.approveAccountRequest).Methods("POST", "PATCH")
	secured.HandleFunc("/account-requests/{id}/reject", s.rejectAccountRequest).Methods("POST", "PATCH")

	secured.HandleFunc("/roles", s.listRoles).Methods("GET")
	secured.HandleFunc("/roles/{name}", s.getRole).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
