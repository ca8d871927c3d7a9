// Package interfaces defines service contracts for ssobridge
package interfaces

import (
	"context"
	"time"

	"github.com/metaforge/ssobridge/internal/models"
)

// StorageManager coordinates the storage backends.
type StorageManager interface {
	// SessionStore returns the session side-store, or nil when disabled.
	SessionStore() SessionStore

	// Lifecycle
	Close() error
}

// SessionStore is the optional side-store for issued session records. The
// issuance path does not depend on it (credentials are self-contained); it
// supports enumeration, early revocation, and count-based observability.
// Implementations must be safe for concurrent use and must never block
// issuance indefinitely; callers pass bounded-timeout contexts.
type SessionStore interface {
	Put(ctx context.Context, rec *models.SessionRecord, ttl time.Duration) error
	Get(ctx context.Context, jti string) (*models.SessionRecord, error)
	Delete(ctx context.Context, jti string) error
	Count(ctx context.Context) (int, error)
	SweepExpired(ctx context.Context) (int, error)
	Close() error
}
