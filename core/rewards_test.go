package core

import "testing"

func TestXPRewardAlwaysAdds(t *testing.T) {
	s := NewUserState("alice")
	r := XPReward{Amount: 500}
	r.Apply(&s)
	r.Apply(&s)
	if s.XP != 1000 {
		t.Fatalf("expected 1000 XP, got %d", s.XP)
	}
}

func TestBadgeRewardIdempotent(t *testing.T) {
	s := NewUserState("bob")
	r := BadgeReward{ID: "millionaire"}
	r.Apply(&s)
	r.Apply(&s)
	if len(s.Badges) != 1 {
		t.Fatalf("expected 1 badge, got %d", len(s.Badges))
	}
}

func TestRewardValidate(t *testing.T) {
	if err := (XPReward{Amount: -5}).Validate(); err == nil {
		t.Fatal("negative xp should be invalid")
	}
	if err := (BadgeReward{ID: "bad id!"}).Validate(); err == nil {
		t.Fatal("badge id with spaces should be invalid")
	}
	if err := (BadgeReward{ID: "speed_master"}).Validate(); err != nil {
		t.Fatalf("valid badge rejected: %v", err)
	}
}

func TestGroupRewardsSumsXPAndListsBadges(t *testing.T) {
	lines := GroupRewards([]Reward{
		XPReward{Amount: 500},
		BadgeReward{ID: "starter"},
		XPReward{Amount: 1500},
		BadgeReward{ID: "explorer"},
	})
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %v", lines)
	}
	if lines[0] != "+2000 XP" {
		t.Fatalf("xp should collapse into one summed line, got %q", lines[0])
	}
	if lines[1] != "Badge: starter" || lines[2] != "Badge: explorer" {
		t.Fatalf("badges should list individually in order, got %v", lines[1:])
	}
}

func TestGroupRewardsOrderByFirstOccurrence(t *testing.T) {
	lines := GroupRewards([]Reward{
		BadgeReward{ID: "first"},
		XPReward{Amount: 100},
	})
	if len(lines) != 2 || lines[0] != "Badge: first" {
		t.Fatalf("badge seen first should lead, got %v", lines)
	}
}
