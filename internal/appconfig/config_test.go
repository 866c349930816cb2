package appconfig

import (
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	if cfg.ConfigVersion != CurrentConfigVersion {
		t.Fatalf("unexpected version %d", cfg.ConfigVersion)
	}
	if !strings.HasSuffix(cfg.StateDir, "state") {
		t.Fatalf("unexpected state dir %q", cfg.StateDir)
	}
	if cfg.Backend.APIKey != "" {
		t.Fatalf("api key should default empty")
	}
	if err := validateBackendConfig(cfg.Backend); err != nil {
		t.Fatalf("default backend should validate: %v", err)
	}
}
