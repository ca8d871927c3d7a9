// Package common provides the shared test environment for API tests: an
// in-process server with real storage under a temp directory.
package common

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/metaforge/ssobridge/internal/app"
	appcommon "github.com/metaforge/ssobridge/internal/common"
	"github.com/metaforge/ssobridge/internal/server"
	"github.com/metaforge/ssobridge/internal/sso"
	"github.com/metaforge/ssobridge/internal/storage"
)

// SharedSalt is the verification salt the test broker signs with.
const SharedSalt = "api-test-shared-salt"

// Env is a running in-process server plus the app behind it.
type Env struct {
	App    *app.App
	Server *httptest.Server
}

// NewEnv starts a full server stack on a temp-dir session store. The
// callback rate limit is raised so test traffic is never throttled.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	cfg := appcommon.NewDefaultConfig()
	cfg.SSO.SharedSalt = SharedSalt
	cfg.SSO.JWTSecret = "api-test-jwt-secret"
	cfg.SSO.FrontendBaseURL = "http://frontend.test"
	cfg.SSO.CallbackRateLimit = 1000
	cfg.Storage.Sessions.Path = t.TempDir()
	cfg.Logging.Level = "disabled"

	logger := appcommon.NewLoggerFromConfig(cfg.Logging)

	mgr, err := storage.NewManager(logger, cfg)
	if err != nil {
		t.Fatalf("storage manager: %v", err)
	}

	a := &app.App{
		Config:      cfg,
		Logger:      logger,
		Storage:     mgr,
		SSO:         sso.NewService(&cfg.SSO, mgr, logger),
		StartupTime: time.Now(),
	}

	srv := server.NewServer(a)
	ts := httptest.NewServer(srv.Handler())

	t.Cleanup(func() {
		ts.Close()
		a.Close()
	})

	return &Env{App: a, Server: ts}
}

// Client returns an HTTP client that does not follow redirects, so tests
// can inspect the 302 from the callback route.
func (e *Env) Client() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// PostForm posts a form-encoded body to the given path.
func (e *Env) PostForm(path string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, e.Server.URL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.Client().Do(req)
}

// Get issues a GET to the given path with optional bearer token.
func (e *Env) Get(path, token string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, e.Server.URL+path, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.Client().Do(req)
}

// ReadBody drains and returns a response body.
func ReadBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}
