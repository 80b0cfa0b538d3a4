// Package jsonfile persists user snapshots to a single JSON file. Suited
// to small bots where a database is overkill; every save rewrites the file
// atomically via a temp file and rename.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"typequest/core"
	"typequest/engine"
)

// Store is a file-backed storage adapter. The whole data set is held in
// memory and flushed on each write.
type Store struct {
	path string

	mu    sync.RWMutex
	users map[core.UserID]core.UserState
}

// New opens or creates the store at path, loading any existing data.
func New(path string) (*Store, error) {
	s := &Store{path: path, users: make(map[core.UserID]core.UserState)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("jsonfile: read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &s.users); err != nil {
		return fmt.Errorf("jsonfile: parse %s: %w", s.path, err)
	}
	return nil
}

// persist writes the full data set to a temp file and renames it into
// place so a crash mid-write never corrupts the store.
func (s *Store) persist() error {
	data, err := json.MarshalIndent(s.users, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: marshal: %w", err)
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("jsonfile: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("jsonfile: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("jsonfile: close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("jsonfile: rename: %w", err)
	}
	return nil
}

// GetState returns a deep copy of the user's snapshot.
func (s *Store) GetState(_ context.Context, user core.UserID) (core.UserState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.users[user]
	if !ok {
		return core.UserState{}, engine.ErrNotFound
	}
	return st.Clone(), nil
}

// SaveState stores the snapshot and flushes the file.
func (s *Store) SaveState(_ context.Context, state core.UserState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[state.UserID] = state.Clone()
	return s.persist()
}

// Delete removes a user and flushes the file.
func (s *Store) Delete(_ context.Context, user core.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user]; !ok {
		return nil
	}
	delete(s.users, user)
	return s.persist()
}

var _ engine.Storage = (*Store)(nil)
