package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// UserID uniquely identifies a player. IDs come from the chat platform and
// are treated as opaque after normalization.
type UserID string

// TestType identifies the kind of typing test a score was produced by.
type TestType string

const (
	TestShort  TestType = "short"
	TestMedium TestType = "medium"
	TestLong   TestType = "long"
	TestQuote  TestType = "quote"
)

// Score is one finished typing test.
type Score struct {
	WPM       float64   `json:"wpm"`
	Accuracy  float64   `json:"accuracy"`
	Words     int64     `json:"words"`
	TestType  TestType  `json:"test_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SeasonSnapshot is the read-only view of the active season supplied by an
// external collaborator. Badge tiers unlock at cumulative XP thresholds.
type SeasonSnapshot struct {
	Enabled bool     `json:"enabled"`
	Badges  []string `json:"badges"`
}

// SeasonTierXP is the XP gap between consecutive season badge tiers.
const SeasonTierXP int64 = 40000

// TierThreshold returns the XP needed to unlock the i-th season badge.
func (s SeasonSnapshot) TierThreshold(i int) int64 {
	return int64(i+1) * SeasonTierXP
}

// DayActivity holds per-hour counts for the trailing 24 hours: tests
// finished and words typed, oldest hour first.
type DayActivity struct {
	Tests []int `json:"tests"`
	Words []int `json:"words"`
}

// TotalTests sums the hourly test counts.
func (d DayActivity) TotalTests() int {
	total := 0
	for _, n := range d.Tests {
		total += n
	}
	return total
}

// TotalWords sums the hourly word counts.
func (d DayActivity) TotalWords() int {
	total := 0
	for _, n := range d.Words {
		total += n
	}
	return total
}

// UserState is a snapshot of one player's progress. Evaluation passes work
// on a mutable copy; the external collaborator persists it afterward.
type UserState struct {
	UserID       UserID                 `json:"user_id"`
	XP           int64                  `json:"xp"`
	Words        int64                  `json:"words"`
	Streak       int                    `json:"streak"`
	Votes        int                    `json:"votes"`
	HighestSpeed float64                `json:"highest_speed"`
	CreatedAt    time.Time              `json:"created_at"`
	Badges       map[string]struct{}    `json:"badges"`
	Achievements map[string][]time.Time `json:"achievements"`
	Scores       []Score                `json:"scores"`
	LastVoted    map[string]time.Time   `json:"last_voted"`
	Last24       DayActivity            `json:"last24"`
	CmdsRun      map[string]struct{}    `json:"cmds_run"`
	Updated      time.Time              `json:"updated"`
}

// NewUserState returns an empty snapshot with all containers allocated.
func NewUserState(user UserID) UserState {
	return UserState{
		UserID:       user,
		Badges:       map[string]struct{}{},
		Achievements: map[string][]time.Time{},
		LastVoted:    map[string]time.Time{},
		CmdsRun:      map[string]struct{}{},
		Updated:      time.Now().UTC(),
	}
}

// Clone returns a deep copy of the state to uphold immutability.
func (s UserState) Clone() UserState {
	cp := s
	cp.Badges = make(map[string]struct{}, len(s.Badges))
	for k := range s.Badges {
		cp.Badges[k] = struct{}{}
	}
	cp.Achievements = make(map[string][]time.Time, len(s.Achievements))
	for k, v := range s.Achievements {
		times := make([]time.Time, len(v))
		copy(times, v)
		cp.Achievements[k] = times
	}
	cp.Scores = make([]Score, len(s.Scores))
	copy(cp.Scores, s.Scores)
	cp.LastVoted = make(map[string]time.Time, len(s.LastVoted))
	for k, v := range s.LastVoted {
		cp.LastVoted[k] = v
	}
	cp.CmdsRun = make(map[string]struct{}, len(s.CmdsRun))
	for k := range s.CmdsRun {
		cp.CmdsRun[k] = struct{}{}
	}
	cp.Last24.Tests = append([]int(nil), s.Last24.Tests...)
	cp.Last24.Words = append([]int(nil), s.Last24.Words...)
	return cp
}

// CompletionCount returns how many completions are recorded for name.
// Repeated entries occur when a tiered ladder reuses one name per rank.
func (s *UserState) CompletionCount(name string) int {
	return len(s.Achievements[name])
}

// RecordCompletion appends a completion timestamp for name. Entries are
// append-only; the count per name never decreases.
func (s *UserState) RecordCompletion(name string, at time.Time) {
	if s.Achievements == nil {
		s.Achievements = map[string][]time.Time{}
	}
	s.Achievements[name] = append(s.Achievements[name], at)
}

// ApplyScore folds a finished test into the snapshot's running stats.
func (s *UserState) ApplyScore(sc Score) {
	s.Scores = append(s.Scores, sc)
	s.Words += sc.Words
	if sc.WPM > s.HighestSpeed {
		s.HighestSpeed = sc.WPM
	}
	s.Updated = sc.Timestamp
}

// AddSafe adds delta to base ensuring no signed overflow occurs.
func AddSafe(base int64, delta int64) (int64, error) {
	if (delta > 0 && base > math.MaxInt64-delta) || (delta < 0 && base < math.MinInt64-delta) {
		return 0, errors.New("integer overflow in AddSafe")
	}
	return base + delta, nil
}

// NormalizeUserID trims and lowercases user identifiers.
func NormalizeUserID(id UserID) (UserID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", errors.New("empty user id")
	}
	return UserID(strings.ToLower(s)), nil
}

// ValidateBadgeID ensures non-empty badge id with simple charset check.
func ValidateBadgeID(id string) error {
	s := strings.TrimSpace(id)
	if s == "" {
		return errors.New("empty badge id")
	}
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			continue
		}
		return errors.New("invalid badge id")
	}
	return nil
}
