package persistence

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStore(t *testing.T) {
	t.Run("LoadNonExistent", func(t *testing.T) {
		store := NewStore(filepath.Join(t.TempDir(), "missing.json"))

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(got.DecodeAs) != 0 {
			t.Errorf("DecodeAs = %v, want empty", got.DecodeAs)
		}
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "prefs.json")
		store := NewStore(path)

		prefs := &Preferences{
			Fingerprint: "abc123",
			DecodeAs:    map[string]string{"icmp.payload": "baby_tlv", "tun.inner": "baby_udp"},
		}
		if err := store.Save(prefs); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
			t.Error("temporary file left behind")
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Version != PreferencesVersion {
			t.Errorf("Version = %d, want %d", got.Version, PreferencesVersion)
		}
		if got.SavedAt.IsZero() {
			t.Error("SavedAt not set")
		}
		if got.Fingerprint != "abc123" {
			t.Errorf("Fingerprint = %q", got.Fingerprint)
		}
		tables := got.Tables()
		if len(tables) != 2 || tables[0] != "icmp.payload" || tables[1] != "tun.inner" {
			t.Errorf("Tables() = %v", tables)
		}
		if got.DecodeAs["icmp.payload"] != "baby_tlv" {
			t.Errorf("DecodeAs[icmp.payload] = %q", got.DecodeAs["icmp.payload"])
		}
	})

	t.Run("Clear", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prefs.json")
		store := NewStore(path)
		if err := store.Save(&Preferences{DecodeAs: map[string]string{"a": "b"}}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if err := store.Clear(); err != nil {
			t.Errorf("second Clear() error = %v", err)
		}
		got, _ := store.Load()
		if len(got.DecodeAs) != 0 {
			t.Errorf("DecodeAs = %v after Clear", got.DecodeAs)
		}
	})

	t.Run("Disabled", func(t *testing.T) {
		store := NewStore("")
		if err := store.Save(&Preferences{DecodeAs: map[string]string{"a": "b"}}); err != nil {
			t.Errorf("Save() error = %v", err)
		}
		got, err := store.Load()
		if err != nil || len(got.DecodeAs) != 0 {
			t.Errorf("Load() = %v, %v", got, err)
		}
	})

	t.Run("Corrupt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prefs.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewStore(path).Load(); err == nil {
			t.Error("Load() should fail on corrupt file")
		}
	})

	t.Run("FutureVersion", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prefs.json")
		if err := os.WriteFile(path, []byte(`{"version": 99}`), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewStore(path).Load(); err == nil {
			t.Error("Load() should reject a newer format version")
		}
	})
}
