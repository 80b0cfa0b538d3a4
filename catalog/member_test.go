package catalog

import (
	"context"
	"testing"
	"time"

	"typequest/core"
	"typequest/rules"
)

func speedLadder() Member {
	return Ladder(
		rules.HighestSpeed("Fast Fingers", "60 wpm", 60),
		rules.HighestSpeed("Touch Typist", "80 wpm", 80),
		rules.HighestSpeed("Century Sprinter", "100 wpm", 100),
	)
}

func TestSingleWrapsOneRule(t *testing.T) {
	m := Single(rules.Votes("Supporter", "10 votes", 10))
	if m.Size() != 1 {
		t.Fatalf("expected size 1, got %d", m.Size())
	}
	if got := m.Milestones(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("unexpected milestones: %v", got)
	}
}

func TestLadderRejectsNonAscendingTargets(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-ascending targets")
		}
	}()
	Ladder(
		rules.HighestSpeed("A", "", 80),
		rules.HighestSpeed("B", "", 60),
	)
}

func TestLadderRejectsEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for empty ladder")
		}
	}()
	Ladder()
}

func TestCurrentTierClampsToLastRung(t *testing.T) {
	m := speedLadder()
	u := core.NewUserState("alice")

	if m.CurrentTier(&u) != 0 {
		t.Fatal("fresh user should be at tier 0")
	}

	u.RecordCompletion("Fast Fingers", time.Now())
	if m.CurrentTier(&u) != 1 {
		t.Fatalf("one completion should advance to tier 1, got %d", m.CurrentTier(&u))
	}

	u.RecordCompletion("Touch Typist", time.Now())
	u.RecordCompletion("Century Sprinter", time.Now())
	// ladder fully banked; tier stays at the last index
	if m.CurrentTier(&u) != 2 {
		t.Fatalf("tier should clamp at 2, got %d", m.CurrentTier(&u))
	}
	if m.Active(&u).Name != "Century Sprinter" {
		t.Fatalf("active rule should stay the hardest, got %s", m.Active(&u).Name)
	}
}

func TestCurrentTierWithRepeatedName(t *testing.T) {
	word := func(target int64) rules.Rule {
		return rules.WordsTyped("Wordsmith", "", target)
	}
	m := Ladder(word(10), word(50), word(100))
	u := core.NewUserState("alice")
	u.RecordCompletion("Wordsmith", time.Now())
	u.RecordCompletion("Wordsmith", time.Now())

	if m.CurrentTier(&u) != 2 {
		t.Fatalf("two banked completions of the shared name should give tier 2, got %d", m.CurrentTier(&u))
	}
}

func TestGroupedLadderAttachesRewardsAtBoundaries(t *testing.T) {
	word := func(target int64) rules.Rule {
		return rules.WordsTyped("Wordsmith", "", target)
	}
	m := GroupedLadder(
		[]core.Reward{core.XPReward{Amount: 2500}, core.BadgeReward{ID: "millionaire"}},
		[]rules.Rule{word(10), word(50)},
		[]rules.Rule{word(100)},
	)

	flat := m.Rules()
	if len(flat) != 3 {
		t.Fatalf("expected flat ladder of 3, got %d", len(flat))
	}
	if flat[0].Reward != nil {
		t.Fatal("mid-group rule should carry no reward")
	}
	if _, ok := flat[1].Reward.(core.XPReward); !ok {
		t.Fatalf("first boundary should carry the XP reward, got %T", flat[1].Reward)
	}
	if _, ok := flat[2].Reward.(core.BadgeReward); !ok {
		t.Fatalf("second boundary should carry the badge, got %T", flat[2].Reward)
	}
	if got := m.Milestones(); len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("unexpected milestones: %v", got)
	}
}

func TestGroupedLadderRewardCountMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for reward/group mismatch")
		}
	}()
	GroupedLadder(
		[]core.Reward{core.XPReward{Amount: 1}},
		[]rules.Rule{rules.WordsTyped("A", "", 10)},
		[]rules.Rule{rules.WordsTyped("B", "", 20)},
	)
}

func TestMemberIsComplete(t *testing.T) {
	m := speedLadder()
	u := core.NewUserState("alice")
	u.HighestSpeed = 100

	done, err := m.IsComplete(context.Background(), nil, &u)
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Fatal("hardest rule satisfied means the member is complete")
	}

	u.HighestSpeed = 99
	done, err = m.IsComplete(context.Background(), nil, &u)
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Fatal("member should be incomplete below the hardest target")
	}
}
