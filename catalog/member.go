// Package catalog holds the declarative achievement and challenge
// definitions: members (single rules and tiered ladders), categories, and
// the static typing-game registry. Definitions are built once at process
// start; invalid configuration panics there.
package catalog

import (
	"context"
	"fmt"

	"typequest/core"
	"typequest/rules"
)

// Member is one top-level slot in a category. All shapes (bare rule,
// ladder, grouped ladder) normalize to a single flat ladder at
// construction so evaluation only ever walks one representation.
type Member struct {
	ladder []rules.Rule
	// milestones are end-exclusive flat indices of reward boundaries for
	// grouped ladders; a plain ladder has one boundary at its end.
	milestones []int
}

// Single wraps a bare rule as a one-rung ladder.
func Single(r rules.Rule) Member {
	return Member{ladder: []rules.Rule{r}, milestones: []int{1}}
}

// Ladder builds an ordered sequence of rules of increasing difficulty
// sharing one progress track.
func Ladder(rs ...rules.Rule) Member {
	if len(rs) == 0 {
		panic(fmt.Errorf("%w: empty ladder", rules.ErrInvalidConfig))
	}
	ladder := append([]rules.Rule(nil), rs...)
	validateAscending(ladder)
	return Member{ladder: ladder, milestones: []int{len(ladder)}}
}

// GroupedLadder builds one continuous ladder from reward-milestone groups:
// the flattened sequence is a single difficulty track, but each group's
// reward is granted at its boundary (attached to the group's last rule).
func GroupedLadder(rewards []core.Reward, groups ...[]rules.Rule) Member {
	if len(groups) == 0 {
		panic(fmt.Errorf("%w: empty grouped ladder", rules.ErrInvalidConfig))
	}
	if len(rewards) != len(groups) {
		panic(fmt.Errorf("%w: grouped ladder has %d groups but %d rewards", rules.ErrInvalidConfig, len(groups), len(rewards)))
	}
	var (
		ladder     []rules.Rule
		milestones []int
	)
	for i, group := range groups {
		if len(group) == 0 {
			panic(fmt.Errorf("%w: grouped ladder group %d is empty", rules.ErrInvalidConfig, i))
		}
		for j, r := range group {
			if j == len(group)-1 && rewards[i] != nil {
				rewarded, err := r.Rewarded(rewards[i])
				if err != nil {
					panic(err)
				}
				r = rewarded
			}
			ladder = append(ladder, r)
		}
		milestones = append(milestones, len(ladder))
	}
	validateAscending(ladder)
	return Member{ladder: ladder, milestones: milestones}
}

// validateAscending enforces strictly increasing difficulty where both
// neighboring targets are statically known.
func validateAscending(ladder []rules.Rule) {
	for i := 1; i < len(ladder); i++ {
		prev, cur := ladder[i-1].StaticTarget(), ladder[i].StaticTarget()
		if prev > 0 && cur > 0 && cur <= prev {
			panic(fmt.Errorf("%w: ladder rule %q target %v does not exceed previous %v",
				rules.ErrInvalidConfig, ladder[i].Name, cur, prev))
		}
	}
}

// Rules returns the normalized flat ladder.
func (m Member) Rules() []rules.Rule { return m.ladder }

// Size returns the ladder length.
func (m Member) Size() int { return len(m.ladder) }

// Milestones returns the end-exclusive indices of reward boundaries.
func (m Member) Milestones() []int { return m.milestones }

// Last returns the hardest rule of the ladder.
func (m Member) Last() rules.Rule { return m.ladder[len(m.ladder)-1] }

// Names returns the distinct rule names in ladder order.
func (m Member) Names() []string {
	var names []string
	seen := map[string]struct{}{}
	for _, r := range m.ladder {
		if _, ok := seen[r.Name]; ok {
			continue
		}
		seen[r.Name] = struct{}{}
		names = append(names, r.Name)
	}
	return names
}

// CurrentTier resolves the active rung: the count of recorded completions
// across the ladder's names, clamped to the last index. Records beyond the
// ladder length never push the tier past the end.
func (m Member) CurrentTier(u *core.UserState) int {
	completed := 0
	for _, name := range m.Names() {
		completed += u.CompletionCount(name)
	}
	if max := len(m.ladder) - 1; completed > max {
		return max
	}
	return completed
}

// Active returns the rule displayed for the user's current tier.
func (m Member) Active(u *core.UserState) rules.Rule {
	return m.ladder[m.CurrentTier(u)]
}

// Progress reports the active rule's progress.
func (m Member) Progress(ctx context.Context, env *rules.Env, u *core.UserState) (rules.Progress, error) {
	return m.Active(u).Progress(ctx, env, u)
}

// IsComplete reports whether the hardest rule is completed, i.e. the
// whole ladder is maxed.
func (m Member) IsComplete(ctx context.Context, env *rules.Env, u *core.UserState) (bool, error) {
	return m.Last().IsCompleted(ctx, env, u)
}
