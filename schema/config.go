package schema

import (
	"errors"
	"os"
	"path/filepath"
	"time"
)

// ServiceConfig defines defaults and limits for the core service.
type ServiceConfig struct {
	// StateDir holds per-workspace UI state snapshots.
	StateDir string
	// PageSize is how many messages one history page fetches.
	PageSize int
	// WindowMaxMessages caps the per-tab cached window.
	WindowMaxMessages int
	// AutosaveInterval is the periodic flush cadence.
	AutosaveInterval time.Duration
	// SaveRetryPerMinute throttles save retries after failures.
	SaveRetryPerMinute int
	// DiagramHistoryMax caps entries returned by history listings. Zero
	// means unlimited.
	DiagramHistoryMax int
}

// DefaultPageSize is the default messages-per-page for history loads.
const DefaultPageSize = 30

// DefaultWindowMaxMessages is the default per-tab window cap.
const DefaultWindowMaxMessages = 500

// DefaultAutosaveInterval is the default periodic flush cadence.
const DefaultAutosaveInterval = 15 * time.Second

// NormalizeServiceConfig applies defaults and validates the config.
func NormalizeServiceConfig(cfg ServiceConfig) (ServiceConfig, error) {
	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ServiceConfig{}, err
		}
		cfg.StateDir = filepath.Join(home, ".skripsihub", "state")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.WindowMaxMessages <= 0 {
		cfg.WindowMaxMessages = DefaultWindowMaxMessages
	}
	if cfg.AutosaveInterval <= 0 {
		cfg.AutosaveInterval = DefaultAutosaveInterval
	}
	if cfg.SaveRetryPerMinute <= 0 {
		cfg.SaveRetryPerMinute = 6
	}
	if cfg.WindowMaxMessages < cfg.PageSize {
		return ServiceConfig{}, errors.New("window max must be at least one page")
	}
	return cfg, nil
}
