package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/metaforge/ssobridge/internal/models"
)

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.handleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestHandleVersion(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rec := httptest.NewRecorder()
	srv.handleVersion(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["version"] == "" {
		t.Error("expected a version value")
	}
}

func TestHandleDiagnostics_RedactsSecrets(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/diagnostics", nil)
	rec := httptest.NewRecorder()
	srv.handleDiagnostics(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	if strings.Contains(body, srv.app.Config.SSO.JWTSecret) {
		t.Error("diagnostics must not leak the JWT secret")
	}
	if strings.Contains(body, srv.app.Config.SSO.SharedSalt) {
		t.Error("diagnostics must not leak the shared salt")
	}
	if !strings.Contains(body, `"jwt_secret_set":true`) {
		t.Errorf("expected jwt_secret_set flag: %s", body)
	}
}

func TestHandleDiagnostics_ReportsStoreDisabled(t *testing.T) {
	srv := newTestServerWithoutStore(t)

	req := httptest.NewRequest(http.MethodGet, "/api/diagnostics", nil)
	rec := httptest.NewRecorder()
	srv.handleDiagnostics(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"enabled":false`) {
		t.Errorf("expected store reported as disabled: %s", rec.Body.String())
	}
}

// issueSession runs a full callback and returns the minted credential.
func issueSession(t *testing.T, srv *Server) (string, string) {
	t.Helper()

	rec := postCallback(srv, callbackForm(t))
	if rec.Code != http.StatusFound {
		t.Fatalf("failed to issue session: %d %q", rec.Code, rec.Body.String())
	}
	token, _ := decodeRedirect(t, rec)

	session, err := srv.app.SSO.ValidateToken(context.Background(), token)
	if err != nil {
		t.Fatalf("issued credential does not validate: %v", err)
	}
	return token, session.JTI
}

func TestHandleAuthValidate_ValidToken(t *testing.T) {
	srv, _ := newTestServer(t)
	token, jti := issueSession(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/validate", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.handleAuthValidate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var session models.SessionRecord
	if err := json.NewDecoder(rec.Body).Decode(&session); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if session.JTI != jti || session.UserID != "u1" {
		t.Errorf("session view wrong: %+v", session)
	}
}

func TestHandleAuthValidate_MissingToken(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/validate", nil)
	rec := httptest.NewRecorder()
	srv.handleAuthValidate(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleAuthValidate_GarbageToken(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/validate", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	srv.handleAuthValidate(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleSessionCount(t *testing.T) {
	srv, _ := newTestServer(t)
	issueSession(t, srv)
	issueSession(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/count", nil)
	rec := httptest.NewRecorder()
	srv.handleSessionCount(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["count"] != 2 {
		t.Errorf("expected count 2, got %d", body["count"])
	}
}

func TestHandleSessionCount_StoreDisabled(t *testing.T) {
	srv := newTestServerWithoutStore(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/count", nil)
	rec := httptest.NewRecorder()
	srv.handleSessionCount(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestHandleSessionSweep(t *testing.T) {
	srv, store := newTestServer(t)
	issueSession(t, srv)

	// Seed a record that expired an hour ago.
	err := store.Put(context.Background(), &models.SessionRecord{
		JTI:       "stale-jti",
		UserID:    "u9",
		ExpiresAt: time.Now().Add(-time.Hour),
	}, 0)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/sweep", nil)
	rec := httptest.NewRecorder()
	srv.handleSessionSweep(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["removed"] != 1 {
		t.Errorf("expected 1 removed, got %d", body["removed"])
	}

	count, _ := store.Count(context.Background())
	if count != 1 {
		t.Errorf("live session should survive the sweep, count=%d", count)
	}
}

func TestHandleSessionByID_Get(t *testing.T) {
	srv, _ := newTestServer(t)
	_, jti := issueSession(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+jti, nil)
	rec := httptest.NewRecorder()
	srv.handleSessionByID(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var session models.SessionRecord
	if err := json.NewDecoder(rec.Body).Decode(&session); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if session.JTI != jti {
		t.Errorf("wrong record: %+v", session)
	}
}

func TestHandleSessionByID_GetUnknown(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/no-such-jti", nil)
	rec := httptest.NewRecorder()
	srv.handleSessionByID(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleSessionByID_RevokeRejectsCredential(t *testing.T) {
	srv, _ := newTestServer(t)
	token, jti := issueSession(t, srv)

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/"+jti, nil)
	rec := httptest.NewRecorder()
	srv.handleSessionByID(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// The still-unexpired credential must now fail validation.
	if _, err := srv.app.SSO.ValidateToken(context.Background(), token); err == nil {
		t.Fatal("revoked session must not validate")
	}

	validateReq := httptest.NewRequest(http.MethodGet, "/api/auth/validate", nil)
	validateReq.Header.Set("Authorization", "Bearer "+token)
	validateRec := httptest.NewRecorder()
	srv.handleAuthValidate(validateRec, validateReq)

	if validateRec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked session, got %d", validateRec.Code)
	}
	if !strings.Contains(validateRec.Body.String(), "revoked") {
		t.Errorf("expected revocation diagnostic: %s", validateRec.Body.String())
	}
}

func TestHandleSessionByID_MissingID(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/", nil)
	rec := httptest.NewRecorder()
	srv.handleSessionByID(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
