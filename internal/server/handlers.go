package server

import (
	"net/http"
	"time"

	"github.com/metaforge/ssobridge/internal/common"
)

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "ssobridge",
	})
}

// handleVersion handles GET /api/version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handleDiagnostics handles GET /api/diagnostics. Secrets never appear in
// the output; only their configured-or-not state does.
func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	cfg := s.app.Config

	diag := map[string]any{
		"version":     common.GetFullVersion(),
		"environment": cfg.Environment,
		"uptime":      time.Since(s.app.StartupTime).Round(time.Second).String(),
		"sso": map[string]any{
			"trusted_idp":         cfg.SSO.TrustedIdP,
			"frontend_base_url":   cfg.SSO.FrontendBaseURL,
			"session_validity":    cfg.SSO.GetSessionValidity().String(),
			"freshness_window":    cfg.SSO.GetFreshnessWindow().String(),
			"shared_salt_set":     cfg.SSO.SharedSalt != "",
			"jwt_secret_set":      cfg.SSO.JWTSecret != "",
			"callback_rate_limit": cfg.SSO.CallbackRateLimit,
		},
	}

	store := map[string]any{
		"enabled": false,
	}
	if ss := s.app.Storage.SessionStore(); ss != nil {
		store["enabled"] = true
		if count, err := ss.Count(r.Context()); err == nil {
			store["sessions"] = count
		} else {
			store["error"] = err.Error()
		}
	}
	diag["session_store"] = store

	WriteJSON(w, http.StatusOK, diag)
}
