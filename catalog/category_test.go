package catalog

import (
	"context"
	"errors"
	"testing"

	"typequest/core"
	"typequest/rules"
)

func TestNewCategoryValidation(t *testing.T) {
	member := Single(rules.Votes("Supporter", "", 10))

	if _, err := NewCategory("", "", "", nil, member); !errors.Is(err, rules.ErrInvalidConfig) {
		t.Fatalf("empty name should fail, got %v", err)
	}
	if _, err := NewCategory("Community", "", "", nil); !errors.Is(err, rules.ErrInvalidConfig) {
		t.Fatalf("no members should fail, got %v", err)
	}
	if _, err := NewCategory("Community", "", "", core.BadgeReward{ID: ""}, member); !errors.Is(err, rules.ErrInvalidConfig) {
		t.Fatalf("invalid reward should fail, got %v", err)
	}
}

func TestNewCategoryRejectsCrossMemberNameCollision(t *testing.T) {
	a := Single(rules.Votes("Supporter", "", 10))
	b := Single(rules.Votes("Supporter", "", 50))
	if _, err := NewCategory("Community", "", "", nil, a, b); !errors.Is(err, rules.ErrInvalidConfig) {
		t.Fatalf("name shared across members should fail, got %v", err)
	}
}

func TestCategoryIsComplete(t *testing.T) {
	c := MustCategory("Community", "", "users", core.BadgeReward{ID: "pillar"},
		Single(rules.Votes("Supporter", "", 10)),
		Single(rules.BadgesOwned("Collector", "", 2)),
	)
	u := core.NewUserState("alice")
	u.Votes = 10
	u.Badges["a"] = struct{}{}

	done, err := c.IsComplete(context.Background(), nil, &u)
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Fatal("one incomplete member should leave the category incomplete")
	}

	u.Badges["b"] = struct{}{}
	done, err = c.IsComplete(context.Background(), nil, &u)
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Fatal("all members maxed should complete the category")
	}
}

func TestRegistryBuilds(t *testing.T) {
	cats := Categories(core.SeasonSnapshot{})
	if len(cats) != 6 {
		t.Fatalf("expected 6 categories without a season, got %d", len(cats))
	}

	withSeason := Categories(core.SeasonSnapshot{Enabled: true, Badges: []string{"bronze", "silver"}})
	if len(withSeason) != 7 {
		t.Fatalf("expected 7 categories with a season, got %d", len(withSeason))
	}
	season := withSeason[6]
	if season.Name != "Season" {
		t.Fatalf("unexpected season category name %q", season.Name)
	}
	if season.Members[0].Size() != 2 {
		t.Fatalf("season ladder should have one rung per badge, got %d", season.Members[0].Size())
	}
}

func TestDailyPoolWeightsArePositive(t *testing.T) {
	for _, w := range DailyPool() {
		if w.Weight <= 0 {
			t.Fatalf("challenge %q has weight %d", w.Rule.Name, w.Weight)
		}
		if w.Rule.Reward != nil {
			t.Fatalf("pool rules carry no intrinsic reward, %q has one", w.Rule.Name)
		}
	}
}
