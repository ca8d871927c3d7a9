// Package sso implements the inbound federated-login callback pipeline:
// payload parsing, source authentication against the shared salt, freshness
// enforcement, user-assertion validation, and session credential issuance.
package sso

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/metaforge/ssobridge/internal/common"
	"github.com/metaforge/ssobridge/internal/interfaces"
	"github.com/metaforge/ssobridge/internal/models"
)

// storeTimeout bounds side-store access on the issuance path. Store writes
// are best-effort and must never stall a login.
const storeTimeout = 2 * time.Second

// Service runs the callback pipeline. Stateless per request; the only
// shared state is the read-only configuration and the optional side-store.
type Service struct {
	cfg     *common.SSOConfig
	storage interfaces.StorageManager
	logger  *common.Logger
	now     func() time.Time
}

// ServiceOption configures the service.
type ServiceOption func(*Service)

// WithClock overrides the time source, used by tests to pin the freshness
// window.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates the callback pipeline service. storage may be nil when
// the session side-store is disabled.
func NewService(cfg *common.SSOConfig, storage interfaces.StorageManager, logger *common.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		cfg:     cfg,
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate processes a raw callback payload through the pipeline,
// short-circuiting at the first failed stage. Stage order: required
// parameters, freshness, source authentication, trusted IdP, user
// assertion, issuance. Freshness runs before the bcrypt comparison so a
// stale replay is rejected without paying the verification cost.
func (s *Service) Authenticate(ctx context.Context, payload map[string]any) (*models.LoginResult, error) {
	env := ParseEnvelope(payload)

	if missing := missingParameters(env); len(missing) > 0 {
		return nil, errMissingParameters(missing)
	}

	timestampMillis, ok := parseTimestamp(env.Proof.Timestamp)
	if !ok {
		// An unreadable timestamp cannot be shown to be fresh.
		return nil, errExpiredCallback()
	}
	if IsExpired(timestampMillis, s.now().UnixMilli(), s.cfg.GetFreshnessWindow()) {
		return nil, errExpiredCallback()
	}

	verified, err := VerifyProof(env.Proof, s.cfg.SharedSalt)
	if err != nil {
		s.logger.Error().Err(err).Msg("Source verification machinery failed")
		return nil, errUntrustedSource()
	}
	if !verified {
		return nil, errUntrustedSource()
	}

	if env.IdP != s.cfg.TrustedIdP {
		return nil, errUnsupportedIdP(env.IdP)
	}

	assertion, cerr := DecodeAssertion(env.UserInfo)
	if cerr != nil {
		return nil, cerr
	}
	if cerr := ValidateAssertion(assertion); cerr != nil {
		return nil, cerr
	}

	issued, err := SignSession(assertion, buildTokenBundle(env), s.cfg)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sign session credential")
		return nil, ErrInternalFailure
	}

	s.recordSession(ctx, issued, assertion)

	s.logger.Info().
		Str("user_id", assertion.UserID).
		Str("jti", issued.JTI).
		Msg("SSO login succeeded")

	return &models.LoginResult{
		Token: issued.Token,
		User:  normalizeUser(assertion),
		JTI:   issued.JTI,
	}, nil
}

// recordSession writes the issued session to the side-store, best-effort.
// Store failures are logged and never fail the login.
func (s *Service) recordSession(ctx context.Context, issued *IssuedSession, assertion *models.UserAssertion) {
	store := s.sessionStore()
	if store == nil {
		return
	}

	rec := &models.SessionRecord{
		JTI:       issued.JTI,
		UserID:    assertion.UserID,
		Username:  assertion.Username,
		IdP:       s.cfg.TrustedIdP,
		IssuedAt:  issued.IssuedAt,
		ExpiresAt: issued.ExpiresAt,
	}

	putCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if err := store.Put(putCtx, rec, s.cfg.GetSessionValidity()); err != nil {
		s.logger.Warn().Err(err).Str("jti", issued.JTI).Msg("Failed to record session in side-store")
	}
}

// ErrTokenRevoked is returned by ValidateToken when the side-store carries
// a revocation mark for the credential.
var ErrTokenRevoked = errors.New("session credential has been revoked")

// ValidateToken parses and verifies a session credential and returns its
// session record view. When the side-store is enabled and holds a revoked
// mark for the credential's jti, the credential is rejected; a missing
// store entry is not an error (the store is an optional side channel).
func (s *Service) ValidateToken(ctx context.Context, token string) (*models.SessionRecord, error) {
	claims, err := ParseSession(token, []byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("invalid session credential: %w", err)
	}

	jti, _ := claims["jti"].(string)
	sub, _ := claims["sub"].(string)
	username, _ := claims["username"].(string)
	if jti == "" || sub == "" {
		return nil, fmt.Errorf("invalid session credential: missing identity claims")
	}

	rec := &models.SessionRecord{
		JTI:      jti,
		UserID:   sub,
		Username: username,
		IdP:      s.cfg.TrustedIdP,
	}
	if iat, ok := claims["iat"].(float64); ok {
		rec.IssuedAt = time.Unix(int64(iat), 0)
	}
	if exp, ok := claims["exp"].(float64); ok {
		rec.ExpiresAt = time.Unix(int64(exp), 0)
	}

	if store := s.sessionStore(); store != nil {
		getCtx, cancel := context.WithTimeout(ctx, storeTimeout)
		defer cancel()
		if stored, err := store.Get(getCtx, jti); err == nil && stored.Revoked {
			return nil, ErrTokenRevoked
		}
	}

	return rec, nil
}

// normalizeUser copies the assertion into the fixed field set attached to
// the redirect payload.
func normalizeUser(a *models.UserAssertion) *models.UserAssertion {
	return &models.UserAssertion{
		UserID:       a.UserID,
		Username:     a.Username,
		Name:         a.Name,
		Email:        a.Email,
		Phone:        a.Phone,
		Gender:       a.Gender,
		Avatar:       a.Avatar,
		DepartmentID: a.DepartmentID,
		Status:       a.Status,
	}
}

func (s *Service) sessionStore() interfaces.SessionStore {
	if s.storage == nil {
		return nil
	}
	return s.storage.SessionStore()
}
