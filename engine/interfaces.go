package engine

import (
	"context"
	"errors"

	"typequest/core"
)

// ErrNotFound is returned by Storage implementations when no snapshot
// exists for a user. The service treats it as a fresh account.
var ErrNotFound = errors.New("user state not found")

// Storage abstracts persistence for user snapshots. GetState returns a
// deep copy; callers mutate it freely and persist via SaveState.
type Storage interface {
	GetState(ctx context.Context, user core.UserID) (core.UserState, error)
	SaveState(ctx context.Context, state core.UserState) error
}
