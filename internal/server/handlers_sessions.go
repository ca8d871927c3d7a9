package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/metaforge/ssobridge/internal/sso"
)

// handleAuthValidate handles GET /api/auth/validate. The session credential
// is presented as a Bearer token; a valid credential returns its session
// record view, anything else returns 401.
func (s *Server) handleAuthValidate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	token := bearerToken(r)
	if token == "" {
		WriteError(w, http.StatusUnauthorized, "Missing bearer token")
		return
	}

	rec, err := s.app.SSO.ValidateToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, sso.ErrTokenRevoked) {
			WriteError(w, http.StatusUnauthorized, "Session has been revoked")
			return
		}
		WriteError(w, http.StatusUnauthorized, "Invalid session credential")
		return
	}

	WriteJSON(w, http.StatusOK, rec)
}

// handleSessionCount handles GET /api/sessions/count
func (s *Server) handleSessionCount(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	store := s.app.Storage.SessionStore()
	if store == nil {
		WriteError(w, http.StatusServiceUnavailable, "Session store is disabled")
		return
	}

	count, err := store.Count(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to count sessions")
		WriteError(w, http.StatusInternalServerError, "Failed to count sessions")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]int{"count": count})
}

// handleSessionSweep handles POST /api/sessions/sweep, removing records
// whose expiry has passed.
func (s *Server) handleSessionSweep(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	store := s.app.Storage.SessionStore()
	if store == nil {
		WriteError(w, http.StatusServiceUnavailable, "Session store is disabled")
		return
	}

	removed, err := store.SweepExpired(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Session sweep failed")
		WriteError(w, http.StatusInternalServerError, "Session sweep failed")
		return
	}

	s.logger.Info().Int("removed", removed).Msg("Swept expired sessions")
	WriteJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// handleSessionByID handles /api/sessions/{jti}:
//   - GET returns the stored session record
//   - DELETE revokes the session (the record is kept with a revocation
//     mark until it expires, so validation can reject the credential early)
func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	store := s.app.Storage.SessionStore()
	if store == nil {
		WriteError(w, http.StatusServiceUnavailable, "Session store is disabled")
		return
	}

	jti := PathParam(r, "/api/sessions/", "")
	if jti == "" {
		WriteError(w, http.StatusBadRequest, "Session ID is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := store.Get(r.Context(), jti)
		if err != nil {
			WriteError(w, http.StatusNotFound, "Session not found")
			return
		}
		WriteJSON(w, http.StatusOK, rec)

	case http.MethodDelete:
		rec, err := store.Get(r.Context(), jti)
		if err != nil {
			WriteError(w, http.StatusNotFound, "Session not found")
			return
		}
		rec.Revoked = true
		if err := store.Put(r.Context(), rec, 0); err != nil {
			s.logger.Error().Err(err).Str("jti", jti).Msg("Failed to revoke session")
			WriteError(w, http.StatusInternalServerError, "Failed to revoke session")
			return
		}
		s.logger.Info().Str("jti", jti).Msg("Session revoked")
		WriteJSON(w, http.StatusOK, map[string]any{"jti": jti, "revoked": true})

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodDelete)
	}
}

// bearerToken extracts a Bearer credential from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}
