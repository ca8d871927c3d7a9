package interfaces

import (
	"context"

	"github.com/metaforge/ssobridge/internal/models"
)

// SSOService runs the callback pipeline: parse, prove source, check
// freshness, validate the user assertion, and mint a session credential.
type SSOService interface {
	// Authenticate processes a raw callback payload. On success it returns
	// the issued credential and normalized user; on failure it returns a
	// *sso.CallbackError describing the first violated rule.
	Authenticate(ctx context.Context, payload map[string]any) (*models.LoginResult, error)

	// ValidateToken parses and verifies a previously issued session
	// credential, returning its session record view. It consults the
	// side-store revocation mark when the store is enabled.
	ValidateToken(ctx context.Context, token string) (*models.SessionRecord, error)
}
