package schema

import "testing"

func TestValidateWorkspaceID(t *testing.T) {
	valid := []WorkspaceID{"ws-1", "thesis.2024", "a", "skripsi_01"}
	for _, id := range valid {
		if err := ValidateWorkspaceID(id); err != nil {
			t.Fatalf("expected %q to validate, got %v", id, err)
		}
	}
	invalid := []WorkspaceID{"", " ws", "ws ", "WS-1", "ws/1", "ws 1"}
	for _, id := range invalid {
		if err := ValidateWorkspaceID(id); err == nil {
			t.Fatalf("expected %q to be rejected", id)
		}
	}
}

func TestValidTabKind(t *testing.T) {
	for _, kind := range TabKinds() {
		if !ValidTabKind(kind) {
			t.Fatalf("expected %q to be valid", kind)
		}
	}
	if ValidTabKind("researcher-4") {
		t.Fatalf("expected unknown kind to be rejected")
	}
}

func TestNormalizeServiceConfigDefaults(t *testing.T) {
	cfg, err := NormalizeServiceConfig(ServiceConfig{StateDir: t.TempDir()})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.PageSize != DefaultPageSize {
		t.Fatalf("expected default page size, got %d", cfg.PageSize)
	}
	if cfg.WindowMaxMessages != DefaultWindowMaxMessages {
		t.Fatalf("expected default window max, got %d", cfg.WindowMaxMessages)
	}
	if cfg.AutosaveInterval != DefaultAutosaveInterval {
		t.Fatalf("expected default autosave interval, got %v", cfg.AutosaveInterval)
	}
}

func TestNormalizeServiceConfigRejectsTinyWindow(t *testing.T) {
	_, err := NormalizeServiceConfig(ServiceConfig{StateDir: t.TempDir(), PageSize: 50, WindowMaxMessages: 10})
	if err == nil {
		t.Fatalf("expected window smaller than page to be rejected")
	}
}
