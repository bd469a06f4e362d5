// Package state persists the window id → content fingerprint mapping between
// runs.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/bryanchriswhite/deskinspect/internal/logger"
	"github.com/pkg/errors"
)

const (
	// DefaultPath is shared with the agent container
	DefaultPath = "/shared/lg-state.json"

	stateDirMode    = 0o755
	stateFileMode   = 0o644
	tempFilePattern = ".lg-state-*.json.tmp"
)

// ErrPersistence marks state file read and write failures
var ErrPersistence = errors.New("state persistence failure")

// State is the fingerprint of every window seen by the previous run
type State struct {
	Windows map[string]string `json:"windows" yaml:"windows"`
}

// New returns an empty state
func New() State {
	return State{Windows: map[string]string{}}
}

// Fingerprint returns the stored digest for id
func (s State) Fingerprint(id string) (string, bool) {
	digest, ok := s.Windows[id]
	return digest, ok
}

// Record stores digest for id. Empty digests are not recorded, so an
// unreadable capture never looks unchanged on the next run.
func (s State) Record(id, digest string) {
	if digest == "" {
		return
	}
	s.Windows[id] = digest
}

// Store reads and atomically replaces the state file
type Store struct {
	path string
}

// NewStore creates a store backed by path
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: filepath.Clean(path)}
}

// Path returns the state file location
func (s *Store) Path() string {
	return s.path
}

// Load reads the previous state. A missing file is an empty state; an
// unreadable or corrupt file is logged and also treated as empty.
func (s *Store) Load() State {
	log := logger.WithComponent("state")

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", s.path).Msg("Failed to read state file, starting fresh")
		}
		return New()
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("Corrupt state file, resetting")
		return New()
	}
	if st.Windows == nil {
		st.Windows = map[string]string{}
	}
	return st
}

// Save replaces the state file with st. The document is written to a temp
// file in the same directory and renamed into place, so readers see either
// the old or the new state.
func (s *Store) Save(st State) error {
	if st.Windows == nil {
		st.Windows = map[string]string{}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, stateDirMode); err != nil {
		return errors.Wrapf(ErrPersistence, "create state directory: %v", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return errors.Wrapf(ErrPersistence, "encode state: %v", err)
	}

	tempFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return errors.Wrapf(ErrPersistence, "create temp state file: %v", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return errors.Wrapf(ErrPersistence, "write temp state file: %v", err)
	}

	if err := tempFile.Chmod(stateFileMode); err != nil {
		_ = tempFile.Close()
		return errors.Wrapf(ErrPersistence, "chmod temp state file: %v", err)
	}

	if err := tempFile.Close(); err != nil {
		return errors.Wrapf(ErrPersistence, "close temp state file: %v", err)
	}

	if err := os.Rename(tempName, s.path); err != nil {
		return errors.Wrapf(ErrPersistence, "replace state file: %v", err)
	}
	cleanup = false

	logger.WithComponent("state").Debug().
		Str("path", s.path).
		Int("windows", len(st.Windows)).
		Msg("State saved")
	return nil
}

// Reset removes the state file so the next run treats every window as changed
func (s *Store) Reset() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(ErrPersistence, "remove state file: %v", err)
	}
	return nil
}
