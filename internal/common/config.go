// Package common provides shared utilities for ssobridge
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for ssobridge
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	SSO         SSOConfig     `toml:"sso"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// SSOConfig holds the federated-login bridge configuration: the shared
// verification salt, the trusted IdP identifier, the session signing secret,
// and the front-end URL the callback redirects to on success.
type SSOConfig struct {
	SharedSalt        string `toml:"shared_salt"`
	TrustedIdP        string `toml:"trusted_idp"`
	JWTSecret         string `toml:"jwt_secret"`
	FrontendBaseURL   string `toml:"frontend_base_url"`
	SessionValidity   string `toml:"session_validity"`    // duration string, default "24h"
	FreshnessWindow   string `toml:"freshness_window"`    // duration string, default "30m"
	CallbackRateLimit int    `toml:"callback_rate_limit"` // callbacks per second, default 10
}

// GetSessionValidity parses and returns the session credential lifetime.
func (c *SSOConfig) GetSessionValidity() time.Duration {
	d, err := time.ParseDuration(c.SessionValidity)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// GetFreshnessWindow parses and returns the maximum callback timestamp age.
func (c *SSOConfig) GetFreshnessWindow() time.Duration {
	d, err := time.ParseDuration(c.FreshnessWindow)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

// StorageConfig holds storage configuration for the session side-store.
type StorageConfig struct {
	Sessions AreaConfig `toml:"sessions"` // Issued-session records (BadgerHold)
}

// AreaConfig holds path configuration for a storage area.
// An empty path disables the area.
type AreaConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		SSO: SSOConfig{
			SharedSalt:        "dev-shared-salt-change-in-production",
			TrustedIdP:        "IAM",
			JWTSecret:         "dev-jwt-secret-change-in-production",
			FrontendBaseURL:   "http://localhost:3000",
			SessionValidity:   "24h",
			FreshnessWindow:   "30m",
			CallbackRateLimit: 10,
		},
		Storage: StorageConfig{
			Sessions: AreaConfig{Path: "data/sessions"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SSOBRIDGE_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("SSOBRIDGE_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("SSOBRIDGE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("SSOBRIDGE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("SSOBRIDGE_DATA_PATH"); path != "" {
		config.Storage.Sessions.Path = path
	}

	// SSO overrides
	if v := os.Getenv("SSOBRIDGE_SHARED_SALT"); v != "" {
		config.SSO.SharedSalt = v
	}
	if v := os.Getenv("SSOBRIDGE_TRUSTED_IDP"); v != "" {
		config.SSO.TrustedIdP = v
	}
	if v := os.Getenv("SSOBRIDGE_JWT_SECRET"); v != "" {
		config.SSO.JWTSecret = v
	}
	if v := os.Getenv("SSOBRIDGE_FRONTEND_URL"); v != "" {
		config.SSO.FrontendBaseURL = v
	}
	if v := os.Getenv("SSOBRIDGE_SESSION_VALIDITY"); v != "" {
		config.SSO.SessionValidity = v
	}
	if v := os.Getenv("SSOBRIDGE_FRESHNESS_WINDOW"); v != "" {
		config.SSO.FreshnessWindow = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ValidateRequired returns the list of configuration fields that are still at
// their development defaults or empty. A production deployment must clear it.
func (c *Config) ValidateRequired() []string {
	var missing []string
	if c.SSO.SharedSalt == "" || c.SSO.SharedSalt == "dev-shared-salt-change-in-production" {
		missing = append(missing, "sso.shared_salt")
	}
	if c.SSO.JWTSecret == "" || c.SSO.JWTSecret == "dev-jwt-secret-change-in-production" {
		missing = append(missing, "sso.jwt_secret")
	}
	if c.SSO.TrustedIdP == "" {
		missing = append(missing, "sso.trusted_idp")
	}
	if c.SSO.FrontendBaseURL == "" {
		missing = append(missing, "sso.frontend_base_url")
	}
	return missing
}
