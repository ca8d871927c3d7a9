// Package app wires configuration, logging, storage, and the SSO pipeline
// into the shared core used by cmd/ssobridge-server.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/metaforge/ssobridge/internal/common"
	"github.com/metaforge/ssobridge/internal/interfaces"
	"github.com/metaforge/ssobridge/internal/sso"
	"github.com/metaforge/ssobridge/internal/storage"
)

// App holds all initialized services and configuration.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Storage     interfaces.StorageManager
	SSO         interfaces.SSOService
	StartupTime time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, logging, storage, and the SSO service.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	// Load configuration - check provided path, SSOBRIDGE_CONFIG, then binary dir
	if configPath == "" {
		configPath = os.Getenv("SSOBRIDGE_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "ssobridge.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/ssobridge.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if p := config.Storage.Sessions.Path; p != "" && !filepath.IsAbs(p) {
		config.Storage.Sessions.Path = filepath.Join(binDir, p)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	if config.IsProduction() {
		if missing := config.ValidateRequired(); len(missing) > 0 {
			return nil, fmt.Errorf("production config is missing required values: %v", missing)
		}
	}

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	ssoService := sso.NewService(&config.SSO, storageManager, logger)

	a := &App{
		Config:      config,
		Logger:      logger,
		Storage:     storageManager,
		SSO:         ssoService,
		StartupTime: startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
