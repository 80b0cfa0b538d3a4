// Package leaderboard maintains an in-process XP ranking as a read model
// updated after each evaluation pass.
package leaderboard

import "typequest/core"

// Entry is one ranked user.
type Entry struct {
	User core.UserID `json:"user"`
	XP   int64       `json:"xp"`
}

// Board is the ranking surface consumed by display collaborators.
type Board interface {
	Update(user core.UserID, xp int64)
	Remove(user core.UserID)
	TopN(n int) []Entry
	Get(user core.UserID) (Entry, bool)
	Rank(user core.UserID) (int, bool)
}
