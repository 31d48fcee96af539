// Package record reads and writes one-file-per-player persistent
// records: kebab-case JSON at players/<name>.json, written atomically and
// fsynced before success is reported.
package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound means no record exists yet for this name — a fresh login,
// not an error worth logging.
var ErrNotFound = errors.New("record: not found")

// Character is the live-state portion of a player record.
// RoomDescription is accepted on load (older area-authored definitions may
// have leaked one into a save file) but is never written back — it belongs
// to the character definition, not the live record.
type Character struct {
	Keywords        []string `json:"keywords"`
	FormalName      string   `json:"formal-name"`
	Description     string   `json:"description,omitempty"`
	RoomDescription string   `json:"room-description,omitempty"`
	Pronoun         string   `json:"pronoun"`
	InRoom          int      `json:"in-room"`
	ID              int      `json:"id,omitempty"`
}

// ObjectSnapshot is one entry of a saved inventory.
type ObjectSnapshot struct {
	Keywords        []string `json:"keywords"`
	Name            string   `json:"name"`
	RoomDescription string   `json:"room-description"`
	Description     string   `json:"description,omitempty"`
}

// Record is the top-level persisted document at players/<name>.json.
type Record struct {
	Name      string           `json:"name"`
	Password  string           `json:"password"`
	Character Character        `json:"character"`
	Inventory []ObjectSnapshot `json:"inventory"`
}

// Store resolves player names to files under a single directory.
type Store struct {
	Dir string
}

// NewStore returns a Store rooted at dir, creating it if absent.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("record: create player directory: %w", err)
	}
	return &Store{Dir: dir}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.Dir, name+".json")
}

// Load reads a player's record. A missing file reports ErrNotFound, which
// callers treat as "new character" rather than a failure.
func (s *Store) Load(name string) (Record, error) {
	var rec Record
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("record: read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("record: decode %s: %w", name, err)
	}
	return rec, nil
}

// Save atomically writes rec to players/<name>.json: it writes to a temp
// file in the same directory, fsyncs its data, then renames it into place.
// Success is only reported after the fsync completes.
func (s *Store) Save(rec Record) error {
	rec.Character.RoomDescription = "" // belongs to the definition, never the save

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("record: encode %s: %w", rec.Name, err)
	}

	tmp, err := os.CreateTemp(s.Dir, rec.Name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("record: create temp file for %s: %w", rec.Name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("record: write %s: %w", rec.Name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("record: fsync %s: %w", rec.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("record: close temp file for %s: %w", rec.Name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(rec.Name)); err != nil {
		return fmt.Errorf("record: replace %s: %w", rec.Name, err)
	}
	return nil
}
