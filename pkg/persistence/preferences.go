package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// PreferencesVersion is the current version of the preferences file format.
const PreferencesVersion = 1

// Preferences holds the persisted host preferences.
type Preferences struct {
	// Version is the file format version.
	Version int `json:"version"`

	// SavedAt is when the preferences were last saved.
	SavedAt time.Time `json:"saved_at"`

	// Fingerprint is the registry fingerprint the selections were made
	// against. A mismatch means the protocol set changed since.
	Fingerprint string `json:"fingerprint,omitempty"`

	// DecodeAs maps a decode-as table name to the selected protocol.
	DecodeAs map[string]string `json:"decode_as,omitempty"`
}

// Tables returns the decode-as table names in sorted order.
func (p *Preferences) Tables() []string {
	out := make([]string, 0, len(p.DecodeAs))
	for t := range p.DecodeAs {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Store manages persistence of preferences to a JSON file. The zero path
// disables persistence: Load returns empty preferences and Save is a no-op.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a preference store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Save writes prefs to disk. The file is replaced atomically.
func (s *Store) Save(prefs *Preferences) error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	prefs.Version = PreferencesVersion
	prefs.SavedAt = time.Now().UTC()

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the preferences from disk. A missing file yields empty
// preferences.
func (s *Store) Load() (*Preferences, error) {
	prefs := &Preferences{Version: PreferencesVersion, DecodeAs: map[string]string{}}
	if s.path == "" {
		return prefs, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return prefs, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, prefs); err != nil {
		return nil, fmt.Errorf("preferences %s: %w", s.path, err)
	}
	if prefs.Version > PreferencesVersion {
		return nil, fmt.Errorf("preferences %s: unsupported version %d", s.path, prefs.Version)
	}
	if prefs.DecodeAs == nil {
		prefs.DecodeAs = map[string]string{}
	}
	return prefs, nil
}

// Clear removes the preferences file.
func (s *Store) Clear() error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
