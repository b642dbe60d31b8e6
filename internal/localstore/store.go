// Package localstore keeps the dashboard's client-side state in a JSON file.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/alexivanou/weather-dashboard/internal/model"
	"github.com/google/uuid"
)

// state is the on-disk document. Only these two keys are stored.
type state struct {
	SelectedCity *model.Location `json:"selectedCity,omitempty"`
	DeviceID     string          `json:"deviceId,omitempty"`
}

// Store is a file-backed implementation of dashboard.LocalStore.
type Store struct {
	path  string
	mu    sync.Mutex
	newID func() string
}

// New returns a store persisting to path. The file is created on first write.
func New(path string) *Store {
	return &Store{path: path, newID: uuid.NewString}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// DeviceID returns the stored device id, generating and persisting one
// on first use.
func (s *Store) DeviceID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return "", err
	}
	if st.DeviceID != "" {
		return st.DeviceID, nil
	}

	st.DeviceID = s.newID()
	if err := s.save(st); err != nil {
		return "", err
	}
	return st.DeviceID, nil
}

// SelectedCity returns the last rendered city, or nil.
func (s *Store) SelectedCity() (*model.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return nil, err
	}
	return st.SelectedCity, nil
}

// SetSelectedCity replaces the stored city.
func (s *Store) SetSelectedCity(loc model.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return err
	}
	st.SelectedCity = &loc
	return s.save(st)
}

// ClearSelectedCity removes the stored city and keeps the device id.
func (s *Store) ClearSelectedCity() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return err
	}
	st.SelectedCity = nil
	return s.save(st)
}

func (s *Store) load() (state, error) {
	var st state
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("read local state: %w", err)
	}
	if len(data) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return state{}, fmt.Errorf("decode local state %s: %w", s.path, err)
	}
	return st, nil
}

// save writes through a temp file so a crash never leaves a partial document.
func (s *Store) save(st state) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode local state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write local state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write local state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace local state: %w", err)
	}
	return nil
}
