package catalog

import (
	"context"
	"fmt"

	"typequest/core"
	"typequest/rules"
)

// Category is a named collection of members. It is complete when every
// member's hardest rule is completed; the transition to complete grants
// the category reward exactly once (detected by the engine from
// before/after snapshots).
type Category struct {
	Name        string
	Description string
	Icon        string
	Reward      core.Reward
	Members     []Member
}

// NewCategory validates that member names do not collide across members:
// a name may repeat within one ladder, never between two slots.
func NewCategory(name, description, icon string, reward core.Reward, members ...Member) (Category, error) {
	if name == "" {
		return Category{}, fmt.Errorf("%w: empty category name", rules.ErrInvalidConfig)
	}
	if len(members) == 0 {
		return Category{}, fmt.Errorf("%w: category %q has no members", rules.ErrInvalidConfig, name)
	}
	if reward != nil {
		if err := reward.Validate(); err != nil {
			return Category{}, fmt.Errorf("%w: category %q reward: %v", rules.ErrInvalidConfig, name, err)
		}
	}
	owner := map[string]int{}
	for i, m := range members {
		for _, n := range m.Names() {
			if prev, ok := owner[n]; ok && prev != i {
				return Category{}, fmt.Errorf("%w: category %q rule name %q appears in two members", rules.ErrInvalidConfig, name, n)
			}
			owner[n] = i
		}
	}
	return Category{Name: name, Description: description, Icon: icon, Reward: reward, Members: members}, nil
}

// MustCategory is NewCategory for static configuration.
func MustCategory(name, description, icon string, reward core.Reward, members ...Member) Category {
	c, err := NewCategory(name, description, icon, reward, members...)
	if err != nil {
		panic(err)
	}
	return c
}

// IsComplete reports whether every member is maxed for the snapshot.
func (c Category) IsComplete(ctx context.Context, env *rules.Env, u *core.UserState) (bool, error) {
	for _, m := range c.Members {
		done, err := m.IsComplete(ctx, env, u)
		if err != nil {
			return false, fmt.Errorf("category %q: %w", c.Name, err)
		}
		if !done {
			return false, nil
		}
	}
	return true, nil
}
