// Package storage provides the top-level StorageManager that coordinates
// the session side-store.
package storage

import (
	"fmt"

	"github.com/metaforge/ssobridge/internal/common"
	"github.com/metaforge/ssobridge/internal/interfaces"
	"github.com/metaforge/ssobridge/internal/storage/sessiondb"
)

// Manager implements interfaces.StorageManager. The session store is
// optional: an empty configured path disables it, and accessors are
// nil-safe for that case.
type Manager struct {
	sessions *sessiondb.Store
	logger   *common.Logger
}

// NewManager creates a StorageManager from configuration.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	m := &Manager{logger: logger}

	if path := config.Storage.Sessions.Path; path != "" {
		store, err := sessiondb.NewStore(logger, path)
		if err != nil {
			return nil, fmt.Errorf("failed to create session store: %w", err)
		}
		m.sessions = store
		logger.Info().Str("sessions", path).Msg("Storage manager initialized")
	} else {
		logger.Info().Msg("Session side-store disabled (no path configured)")
	}

	return m, nil
}

// SessionStore returns the session side-store, or nil when disabled.
func (m *Manager) SessionStore() interfaces.SessionStore {
	if m.sessions == nil {
		return nil
	}
	return m.sessions
}

// Close releases all storage resources.
func (m *Manager) Close() error {
	if m.sessions != nil {
		if err := m.sessions.Close(); err != nil {
			return err
		}
		m.sessions = nil
	}
	return nil
}
