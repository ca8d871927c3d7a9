// Package server exposes the HTTP surface of ssobridge: the IdP callback
// route plus the operational API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/metaforge/ssobridge/internal/app"
	"github.com/metaforge/ssobridge/internal/common"
)

// Server wraps the HTTP server and application reference.
type Server struct {
	app    *app.App
	server *http.Server
	logger *common.Logger
}

// NewServer creates the HTTP server.
func NewServer(a *app.App) *Server {
	s := &Server{
		app:    a,
		logger: a.Logger,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := applyMiddleware(mux, a.Logger, a.Config)

	host := a.Config.Server.Host
	port := a.Config.Server.Port

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting SSO bridge server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// registerRoutes sets up all routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// IdP callback (wire contract, do not change)
	mux.HandleFunc("/sso-callback", s.handleSSOCallback)

	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/diagnostics", s.handleDiagnostics)

	// Auth
	mux.HandleFunc("/api/auth/validate", s.handleAuthValidate)

	// Sessions (side-store observability and revocation)
	mux.HandleFunc("/api/sessions/count", s.handleSessionCount)
	mux.HandleFunc("/api/sessions/sweep", s.handleSessionSweep)
	mux.HandleFunc("/api/sessions/", s.handleSessionByID)
}
