package server

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/metaforge/ssobridge/internal/app"
	"github.com/metaforge/ssobridge/internal/common"
	"github.com/metaforge/ssobridge/internal/interfaces"
	"github.com/metaforge/ssobridge/internal/models"
	"github.com/metaforge/ssobridge/internal/sso"
)

const testSharedSalt = "handler-test-salt"

// memSessionStore is an in-memory SessionStore for handler tests.
type memSessionStore struct {
	mu   sync.Mutex
	recs map[string]*models.SessionRecord
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{recs: map[string]*models.SessionRecord{}}
}

func (m *memSessionStore) Put(ctx context.Context, rec *models.SessionRecord, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.recs[rec.JTI] = &cp
	return nil
}

func (m *memSessionStore) Get(ctx context.Context, jti string) (*models.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[jti]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *rec
	return &cp, nil
}

func (m *memSessionStore) Delete(ctx context.Context, jti string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, jti)
	return nil
}

func (m *memSessionStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs), nil
}

func (m *memSessionStore) SweepExpired(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	now := time.Now()
	for jti, rec := range m.recs {
		if rec.Expired(now) {
			delete(m.recs, jti)
			removed++
		}
	}
	return removed, nil
}

func (m *memSessionStore) Close() error { return nil }

// mockStorageManager exposes an optional in-memory session store.
type mockStorageManager struct {
	sessions interfaces.SessionStore
}

func (m *mockStorageManager) SessionStore() interfaces.SessionStore { return m.sessions }
func (m *mockStorageManager) Close() error                          { return nil }

// newTestServer builds a Server backed by the real callback pipeline and an
// in-memory session store.
func newTestServer(t *testing.T) (*Server, *memSessionStore) {
	t.Helper()

	logger := common.NewSilentLogger()
	cfg := common.NewDefaultConfig()
	cfg.SSO.SharedSalt = testSharedSalt
	cfg.SSO.JWTSecret = "handler-test-secret"
	cfg.SSO.TrustedIdP = "IAM"
	cfg.SSO.FrontendBaseURL = "http://frontend.local"

	store := newMemSessionStore()
	mgr := &mockStorageManager{sessions: store}

	a := &app.App{
		Config:      cfg,
		Logger:      logger,
		Storage:     mgr,
		SSO:         sso.NewService(&cfg.SSO, mgr, logger),
		StartupTime: time.Now(),
	}

	return &Server{app: a, logger: logger}, store
}

// newTestServerWithoutStore builds a Server with the session side-store
// disabled.
func newTestServerWithoutStore(t *testing.T) *Server {
	t.Helper()
	srv, _ := newTestServer(t)
	srv.app.Storage = &mockStorageManager{}
	srv.app.SSO = sso.NewService(&srv.app.Config.SSO, srv.app.Storage, srv.logger)
	return srv
}

// freshProof returns timestamp and public_secret form values that pass
// source authentication against testSharedSalt right now.
func freshProof(t *testing.T) (string, string) {
	t.Helper()
	return proofForMillis(t, time.Now().UnixMilli())
}

// proofForMillis builds a genuine proof for an arbitrary epoch-millisecond
// timestamp.
func proofForMillis(t *testing.T, millis int64) (string, string) {
	t.Helper()
	ts := strconv.FormatInt(millis, 10)
	digest, err := bcrypt.GenerateFromPassword([]byte(ts+testSharedSalt), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to generate proof: %v", err)
	}
	return ts, string(digest)
}
