package persist

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/medhika/skripsihub/schema"
)

func TestStoreLoadMissing(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	_, ok, err := store.Load("thesis-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatalf("expected missing snapshot")
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	snapshot := WorkspaceSnapshot{
		ActiveTab: "tab-paraphraser",
		LoadedDiagrams: map[schema.TabID]schema.DiagramID{
			"tab-diagram": "diag-42",
		},
	}
	if err := store.Save("thesis-1", snapshot); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := store.Load("thesis-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatalf("expected snapshot to exist")
	}
	if !reflect.DeepEqual(snapshot, got) {
		t.Fatalf("snapshot mismatch:\nwant: %+v\ngot:  %+v", snapshot, got)
	}
}

func TestStoreLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	path := filepath.Join(dir, "thesis-1.json")
	if err := os.WriteFile(path, []byte("{not-json"), 0o600); err != nil {
		t.Fatalf("write bad json: %v", err)
	}
	if _, _, err := store.Load("thesis-1"); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}
