package appconfig

import (
	"os"
	"path/filepath"

	"github.com/medhika/skripsihub/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string        `mapstructure:"state_dir" yaml:"state_dir"`
	Backend       BackendConfig `mapstructure:"backend" yaml:"backend"`
	Service       ServiceConfig `mapstructure:"service" yaml:"service"`
	HTTP          HTTPConfig    `mapstructure:"http" yaml:"http"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// BackendConfig configures the platform REST API connection.
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
}

// ServiceConfig controls core service behavior.
type ServiceConfig struct {
	PageSize                int `mapstructure:"page_size" yaml:"page_size"`
	WindowMaxMessages       int `mapstructure:"window_max_messages" yaml:"window_max_messages"`
	AutosaveIntervalSeconds int `mapstructure:"autosave_interval_seconds" yaml:"autosave_interval_seconds"`
	SaveRetryPerMinute      int `mapstructure:"save_retry_per_minute" yaml:"save_retry_per_minute"`
	DiagramHistoryMax       int `mapstructure:"diagram_history_max" yaml:"diagram_history_max"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr       string `mapstructure:"addr" yaml:"addr"`
	HubHistory int    `mapstructure:"hub_history" yaml:"hub_history"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(home, ".skripsihub", "state"),
		Backend: BackendConfig{
			BaseURL: "http://localhost:8000",
			APIKey:  "",
		},
		Service: ServiceConfig{
			PageSize:                schema.DefaultPageSize,
			WindowMaxMessages:       schema.DefaultWindowMaxMessages,
			AutosaveIntervalSeconds: int(schema.DefaultAutosaveInterval.Seconds()),
			SaveRetryPerMinute:      6,
			DiagramHistoryMax:       100,
		},
		HTTP: HTTPConfig{
			Addr:       ":27490",
			HubHistory: 1000,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".skripsihub", "config.yaml"), nil
}
