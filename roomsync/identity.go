// roomsync/identity.go
package roomsync

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Identity supplies the per-device player identity: a stable id that outlives
// rooms and sessions, plus the last-used display name.
type Identity interface {
	PlayerID() string
	Name() string
	SetName(name string) error
}

type identityData struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

// FileIdentity persists the identity in a small JSON file, created on first
// use. Equivalent of the browser's local storage slot for playerId/name.
type FileIdentity struct {
	path string
	mu   sync.Mutex
	data identityData
}

// LoadIdentity reads the identity file at path, generating and persisting a
// fresh player id when none exists yet.
func LoadIdentity(path string) (*FileIdentity, error) {
	f := &FileIdentity{path: path}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &f.data); err == nil && f.data.PlayerID != "" {
			return f, nil
		}
		// Corrupt file: fall through and regenerate.
	case !os.IsNotExist(err):
		return nil, err
	}

	f.data.PlayerID = "player_" + uuid.NewString()
	if err := f.save(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *FileIdentity) PlayerID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.PlayerID
}

func (f *FileIdentity) Name() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.Name
}

func (f *FileIdentity) SetName(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data.Name = name
	return f.save()
}

func (f *FileIdentity) save() error {
	raw, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(f.path, raw, 0o600)
}

// StaticIdentity carries an externally managed identity, e.g. one the browser
// client persisted itself and sent along when connecting to the gateway.
type StaticIdentity struct {
	ID          string
	DisplayName string
}

func (s *StaticIdentity) PlayerID() string { return s.ID }
func (s *StaticIdentity) Name() string     { return s.DisplayName }

func (s *StaticIdentity) SetName(name string) error {
	s.DisplayName = name
	return nil
}
