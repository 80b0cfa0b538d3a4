package core

import (
	"errors"
	"fmt"
)

// Reward is a grant attached to a completed achievement or challenge.
// Apply is an in-memory transform of the caller's snapshot copy; it never
// fails for a validated reward. XP grants always add (the caller
// deduplicates via completion records), badge grants are set-union.
type Reward interface {
	Describe() string
	Apply(s *UserState)
	Validate() error
}

// XPReward grants a fixed amount of experience points.
type XPReward struct {
	Amount int64 `json:"amount"`
}

func (r XPReward) Describe() string { return fmt.Sprintf("+%d XP", r.Amount) }

func (r XPReward) Apply(s *UserState) { s.XP += r.Amount }

func (r XPReward) Validate() error {
	if r.Amount < 0 {
		return errors.New("xp reward amount must be >= 0")
	}
	return nil
}

// BadgeReward grants a named badge. Granting an owned badge is a no-op.
type BadgeReward struct {
	ID string `json:"id"`
}

func (r BadgeReward) Describe() string { return "Badge: " + r.ID }

func (r BadgeReward) Apply(s *UserState) {
	if s.Badges == nil {
		s.Badges = map[string]struct{}{}
	}
	s.Badges[r.ID] = struct{}{}
}

func (r BadgeReward) Validate() error { return ValidateBadgeID(r.ID) }

// GroupRewards merges a batch of grants into display strings. Rewards are
// partitioned by kind in order of first occurrence: XP amounts collapse
// into one summed line, badges are listed individually.
func GroupRewards(rewards []Reward) []string {
	var (
		order   []string
		xpTotal int64
		badges  []string
	)
	seen := map[string]bool{}
	for _, r := range rewards {
		switch rw := r.(type) {
		case XPReward:
			xpTotal += rw.Amount
			if !seen["xp"] {
				seen["xp"] = true
				order = append(order, "xp")
			}
		case BadgeReward:
			badges = append(badges, rw.Describe())
			if !seen["badge"] {
				seen["badge"] = true
				order = append(order, "badge")
			}
		}
	}
	var out []string
	for _, kind := range order {
		switch kind {
		case "xp":
			out = append(out, XPReward{Amount: xpTotal}.Describe())
		case "badge":
			out = append(out, badges...)
		}
	}
	return out
}
