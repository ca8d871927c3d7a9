package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/metaforge/ssobridge/internal/models"
	"github.com/metaforge/ssobridge/internal/sso"
)

// ssoCallbackUsage is returned for GET /sso-callback. The route only does
// work for the broker's asynchronous POST.
const ssoCallbackUsage = "This endpoint completes a federated login. " +
	"It accepts the identity broker's form-encoded POST callback; it is not meant to be opened in a browser.\n"

// successPayload is the structure URL-encoded into the redirect's data
// parameter. Decoding the parameter with standard URL-decoding and JSON
// parsing reproduces it exactly.
type successPayload struct {
	Token   string                `json:"token"`
	User    *models.UserAssertion `json:"user"`
	Success bool                  `json:"success"`
}

// handleSSOCallback handles the IdP broker callback on /sso-callback.
//
// Success is a 302 redirect to {frontend_base_url}/sso-success with the
// credential and user attached as one opaque data parameter. Every failure,
// including unexpected internal ones, is reported as HTTP 200 with a
// plain-text diagnostic: the broker's POST must not be treated as a hard
// transport failure by intermediaries, and internal detail never reaches
// the caller.
func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		WriteText(w, http.StatusOK, ssoCallbackUsage)
		return
	case http.MethodPost:
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", rec)).
				Msg("Panic in SSO callback handler")
			WriteText(w, http.StatusOK, sso.ErrInternalFailure.Message)
		}
	}()

	payload, err := decodeCallbackPayload(r)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Unreadable SSO callback body")
		WriteText(w, http.StatusOK, sso.ErrInternalFailure.Message)
		return
	}

	result, err := s.app.SSO.Authenticate(r.Context(), payload)
	if err != nil {
		var cerr *sso.CallbackError
		if errors.As(err, &cerr) {
			s.logger.Info().
				Str("kind", string(cerr.Kind)).
				Msg("SSO callback rejected")
			WriteText(w, http.StatusOK, cerr.Message)
			return
		}
		s.logger.Error().Err(err).Msg("SSO callback failed unexpectedly")
		WriteText(w, http.StatusOK, sso.ErrInternalFailure.Message)
		return
	}

	redirectURL, err := buildSuccessRedirectURL(s.app.Config.SSO.FrontendBaseURL, result)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build success redirect URL")
		WriteText(w, http.StatusOK, sso.ErrInternalFailure.Message)
		return
	}

	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// buildSuccessRedirectURL appends /sso-success and the URL-safe encoded
// data parameter to the configured front-end base URL.
func buildSuccessRedirectURL(frontendBaseURL string, result *models.LoginResult) (string, error) {
	u, err := url.Parse(frontendBaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid frontend base URL: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/sso-success"

	data, err := json.Marshal(successPayload{
		Token:   result.Token,
		User:    result.User,
		Success: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode success payload: %w", err)
	}

	q := u.Query()
	q.Set("data", string(data))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
