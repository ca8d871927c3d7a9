// Package sessiondb implements the session side-store using BadgerHold.
// Records are keyed by credential jti; expiry is enforced by sweep rather
// than deletion-on-read, so counts reflect what is physically stored.
package sessiondb

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/metaforge/ssobridge/internal/common"
	"github.com/metaforge/ssobridge/internal/models"
)

// Store implements interfaces.SessionStore backed by BadgerHold.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore opens the session store at the given path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session db path %s: %w", path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open session db at %s: %w", path, err)
	}
	logger.Info().Str("path", path).Msg("SessionDB opened")
	return &Store{db: db, logger: logger}, nil
}

// Put stores a session record. When the record carries no expiry, one is
// derived from the ttl.
func (s *Store) Put(ctx context.Context, rec *models.SessionRecord, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.JTI == "" {
		return fmt.Errorf("session record requires a jti")
	}
	if rec.ExpiresAt.IsZero() {
		rec.ExpiresAt = time.Now().Add(ttl)
	}
	if err := s.db.Upsert(rec.JTI, rec); err != nil {
		return fmt.Errorf("failed to save session '%s': %w", rec.JTI, err)
	}
	return nil
}

// Get retrieves a session record by jti.
func (s *Store) Get(ctx context.Context, jti string) (*models.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec models.SessionRecord
	if err := s.db.Get(jti, &rec); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("session '%s' not found", jti)
		}
		return nil, fmt.Errorf("failed to get session '%s': %w", jti, err)
	}
	return &rec, nil
}

// Delete removes a session record. Deleting an absent record is not an
// error.
func (s *Store) Delete(ctx context.Context, jti string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Delete(jti, models.SessionRecord{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete session '%s': %w", jti, err)
	}
	return nil
}

// Count returns the number of stored session records, expired or not.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var recs []*models.SessionRecord
	if err := s.db.Find(&recs, nil); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return len(recs), nil
}

// SweepExpired removes records whose expiry has passed and returns how many
// were removed.
func (s *Store) SweepExpired(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	now := time.Now()
	var expired []*models.SessionRecord
	if err := s.db.Find(&expired, badgerhold.Where("ExpiresAt").Lt(now)); err != nil {
		return 0, fmt.Errorf("failed to query expired sessions: %w", err)
	}

	removed := 0
	for _, rec := range expired {
		if err := s.db.Delete(rec.JTI, models.SessionRecord{}); err != nil && err != badgerhold.ErrNotFound {
			s.logger.Warn().Err(err).Str("jti", rec.JTI).Msg("Failed to sweep expired session")
			continue
		}
		removed++
	}
	return removed, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
