package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestStoreSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	store := &Store{path: path, settings: defaultSettings()}
	store.settings.Provider.APIKey = "sk-test"
	store.settings.Approval.Mode = "full-access"

	if err := store.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reloaded := &Store{path: path, settings: defaultSettings()}
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	got := reloaded.Get()
	if got.Provider.APIKey != "sk-test" {
		t.Errorf("APIKey = %q, want sk-test", got.Provider.APIKey)
	}
	if got.Approval.Mode != "full-access" {
		t.Errorf("Approval.Mode = %q, want full-access", got.Approval.Mode)
	}
}

func TestStoreUpdate(t *testing.T) {
	dir := t.TempDir()
	store := &Store{path: filepath.Join(dir, "settings.json"), settings: defaultSettings()}

	if err := store.Update(func(s *Settings) { s.Approval.AllowNetwork = true }); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if !store.Get().Approval.AllowNetwork {
		t.Error("AllowNetwork not persisted by Update")
	}

	data, err := os.ReadFile(store.path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var onDisk Settings
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !onDisk.Approval.AllowNetwork {
		t.Error("AllowNetwork not written to disk")
	}
}

func TestNewStoreCreatesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	settings := store.Get()
	if settings.Provider.Provider != "anthropic" {
		t.Errorf("default Provider = %q, want anthropic", settings.Provider.Provider)
	}

	if _, err := os.Stat(filepath.Join(home, ".thunderus", "settings.json")); err != nil {
		t.Errorf("settings.json not created: %v", err)
	}
}
