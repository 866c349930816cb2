package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ConfigVersion != CurrentConfigVersion {
		t.Fatalf("unexpected version %d", cfg.ConfigVersion)
	}
	if cfg.Backend.BaseURL != "http://localhost:8000" {
		t.Fatalf("unexpected backend %q", cfg.Backend.BaseURL)
	}
	if cfg.HTTP.Addr != ":27490" {
		t.Fatalf("unexpected addr %q", cfg.HTTP.Addr)
	}
	if cfg.Service.PageSize <= 0 || cfg.Service.AutosaveIntervalSeconds <= 0 {
		t.Fatalf("unexpected service defaults %+v", cfg.Service)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
backend:
  base_url: https://api.skripsi.example
  api_key: sk-123
service:
  page_size: 50
http:
  addr: ":9000"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend.BaseURL != "https://api.skripsi.example" || cfg.Backend.APIKey != "sk-123" {
		t.Fatalf("unexpected backend %+v", cfg.Backend)
	}
	if cfg.Service.PageSize != 50 {
		t.Fatalf("unexpected page size %d", cfg.Service.PageSize)
	}
	if cfg.HTTP.Addr != ":9000" {
		t.Fatalf("unexpected addr %q", cfg.HTTP.Addr)
	}
	// Unset keys keep their defaults.
	if cfg.Service.WindowMaxMessages <= 0 {
		t.Fatalf("expected default window max, got %d", cfg.Service.WindowMaxMessages)
	}
}

func TestLoadRejectsMissingConfigVersion(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: https://api.skripsi.example
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "config_version") {
		t.Fatalf("expected config_version error, got %v", err)
	}
}

func TestLoadRejectsUnsupportedConfigVersion(t *testing.T) {
	path := writeConfig(t, `
config_version: 99
backend:
  base_url: https://api.skripsi.example
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unsupported config_version") {
		t.Fatalf("expected config_version error, got %v", err)
	}
}

func TestLoadRequiresBackendBaseURLInFile(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
service:
  page_size: 10
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "backend.base_url") {
		t.Fatalf("expected base_url error, got %v", err)
	}
}

func TestLoadRejectsInvalidBackendBaseURL(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
backend:
  base_url: api.skripsi.example
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "backend.base_url") {
		t.Fatalf("expected base_url error, got %v", err)
	}
}

func TestLoadExpandsEnvInAPIKey(t *testing.T) {
	t.Setenv("SKRIPSIHUB_TEST_KEY", "sk-env")
	path := writeConfig(t, `
config_version: 1
backend:
  base_url: https://api.skripsi.example
  api_key: $SKRIPSIHUB_TEST_KEY
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend.APIKey != "sk-env" {
		t.Fatalf("expected env expansion, got %q", cfg.Backend.APIKey)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("FOO", "bar")
	value := expandEnv("$FOO/$UID/$GID/$MISSING")
	if !strings.HasPrefix(value, "bar/") {
		t.Fatalf("expected env expansion, got %q", value)
	}
	if strings.Contains(value, "$UID") || strings.Contains(value, "$GID") {
		t.Fatalf("expected UID/GID expansion, got %q", value)
	}
	if !strings.HasSuffix(value, "/$MISSING") {
		t.Fatalf("expected missing vars to remain, got %q", value)
	}
}

func TestWriteDefaultRespectsOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	written, err := WriteDefault(path, false)
	if err != nil {
		t.Fatalf("write default: %v", err)
	}
	if written != path {
		t.Fatalf("expected path %q, got %q", path, written)
	}
	if _, err := WriteDefault(path, false); err == nil {
		t.Fatalf("expected error when config exists")
	}
	if _, err := WriteDefault(path, true); err != nil {
		t.Fatalf("expected overwrite to succeed: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.ConfigVersion != CurrentConfigVersion {
		t.Fatalf("unexpected version %d", cfg.ConfigVersion)
	}
}
