// Package memory provides an in-process storage backend. It is the default
// for tests and single-node deployments without persistence needs.
package memory

import (
	"context"
	"sync"

	"typequest/core"
	"typequest/engine"
)

// Store keeps user snapshots in a mutex-guarded map. All reads and writes
// deep-copy so callers never share snapshot memory with the store.
type Store struct {
	mu    sync.RWMutex
	users map[core.UserID]core.UserState
}

// New returns an empty store.
func New() *Store {
	return &Store{users: make(map[core.UserID]core.UserState)}
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

// SaveState stores a deep copy of the snapshot.
func (s *Store) SaveState(_ context.Context, state core.UserState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[state.UserID] = state.Clone()
	return nil
}

// Delete removes a user's snapshot. Unknown users are a no-op.
func (s *Store) Delete(_ context.Context, user core.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, user)
	return nil
}

// Len reports the number of stored snapshots.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

var _ engine.Storage = (*Store)(nil)
