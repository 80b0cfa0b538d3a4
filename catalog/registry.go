package catalog

import (
	"fmt"

	"typequest/core"
	"typequest/daily"
	"typequest/rules"
)

// Categories builds the full achievement registry. The season category is
// derived from the supplied snapshot and omitted while no season runs.
func Categories(season core.SeasonSnapshot) []Category {
	cats := []Category{
		speedCategory(),
		wordsmithCategory(),
		perfectionCategory(),
		dedicationCategory(),
		communityCategory(),
		explorerCategory(),
	}
	if season.Enabled && len(season.Badges) > 0 {
		cats = append(cats, seasonCategory(season))
	}
	return cats
}

func speedCategory() Category {
	return MustCategory("Speed", "Raise your personal best, one gear at a time", "zap",
		core.BadgeReward{ID: "speed_master"},
		Ladder(
			rules.HighestSpeed("Fast Fingers", "Reach 60 WPM in any test", 60, rules.WithReward(core.XPReward{Amount: 500})),
			rules.HighestSpeed("Touch Typist", "Reach 80 WPM in any test", 80, rules.WithReward(core.XPReward{Amount: 1000})),
			rules.HighestSpeed("Century Sprinter", "Reach 100 WPM in any test", 100, rules.WithReward(core.XPReward{Amount: 2000})),
			rules.HighestSpeed("Hot Keys", "Reach 120 WPM in any test", 120, rules.WithReward(core.XPReward{Amount: 4000})),
			rules.HighestSpeed("Supersonic", "Reach 150 WPM in any test", 150, rules.WithReward(core.XPReward{Amount: 8000})),
		),
	)
}

func wordsmithCategory() Category {
	// One continuous ladder reusing a single name per rank; rewards land
	// at the two milestone boundaries.
	wordRank := func(words int64) rules.Rule {
		return rules.WordsTyped("Wordsmith", fmt.Sprintf("Type %d words in total", words), words)
	}
	return MustCategory("Wordsmith", "Lifetime words typed", "scroll",
		core.BadgeReward{ID: "wordsmith_gold"},
		GroupedLadder(
			[]core.Reward{
				core.XPReward{Amount: 2500},
				core.BadgeReward{ID: "millionaire"},
			},
			[]rules.Rule{wordRank(10_000), wordRank(50_000), wordRank(100_000), wordRank(250_000)},
			[]rules.Rule{wordRank(500_000), wordRank(1_000_000)},
		),
	)
}

func perfectionCategory() Category {
	return MustCategory("Perfection", "Accuracy under pressure", "target",
		core.BadgeReward{ID: "perfectionist"},
		Ladder(
			rules.PerfectRun("Flawless", "3 perfect-accuracy tests in a row", 3, rules.WithReward(core.XPReward{Amount: 750})),
			rules.PerfectRun("Laser Focus", "5 perfect-accuracy tests in a row", 5, rules.WithReward(core.XPReward{Amount: 1500})),
			rules.PerfectRun("Machine", "10 perfect-accuracy tests in a row", 10, rules.WithReward(core.XPReward{Amount: 5000})),
		),
		Single(rules.Consistency("Steady Hands", "95%+ accuracy on 18 of your last 20 tests", 20, 95, 18,
			rules.WithReward(core.XPReward{Amount: 2000}))),
	)
}

func dedicationCategory() Category {
	return MustCategory("Dedication", "Show up every day", "flame",
		core.BadgeReward{ID: "dedicated"},
		Ladder(
			rules.StreakDays("Warming Up", "Practice 3 days in a row", 3, rules.WithImmutable(), rules.WithReward(core.XPReward{Amount: 300})),
			rules.StreakDays("Habit", "Practice 7 days in a row", 7, rules.WithImmutable(), rules.WithReward(core.XPReward{Amount: 1000})),
			rules.StreakDays("Devoted", "Practice 30 days in a row", 30, rules.WithImmutable(), rules.WithReward(core.XPReward{Amount: 5000})),
			rules.StreakDays("Iron Will", "Practice 100 days in a row", 100, rules.WithImmutable(), rules.WithReward(core.BadgeReward{ID: "iron_will"})),
		),
		Single(rules.AccountAge("Veteran", "One year since your first test", 365, rules.WithImmutable(),
			rules.WithReward(core.XPReward{Amount: 3000}))),
		Single(rules.TestsIn24h("Marathon", "50 tests within 24 hours", 50,
			rules.WithImmutable(), rules.WithReward(core.XPReward{Amount: 2500}))),
	)
}

func communityCategory() Category {
	return MustCategory("Community", "Beyond the keyboard", "users",
		core.BadgeReward{ID: "pillar"},
		Ladder(
			rules.Votes("Supporter", "Vote for the bot 10 times", 10, rules.WithReward(core.XPReward{Amount: 500})),
			rules.Votes("Advocate", "Vote for the bot 50 times", 50, rules.WithReward(core.XPReward{Amount: 2500})),
		),
		Single(rules.BadgesOwned("Collector", "Own 10 badges", 10, rules.WithReward(core.XPReward{Amount: 1000}))),
		Single(rules.CommandExplorer("Completionist", "Run every bot command at least once",
			rules.WithImmutable(), rules.WithReward(core.BadgeReward{ID: "completionist"}))),
	)
}

func explorerCategory() Category {
	return MustCategory("Explorer", "Try everything once", "compass",
		core.BadgeReward{ID: "explorer"},
		Single(rules.TestTypeSampler("Variety", "Play all 4 test types", 4, rules.WithReward(core.XPReward{Amount: 500}))),
		Ladder(
			rules.TestCount("Getting Started", "Finish 10 tests", 10, rules.WithReward(core.XPReward{Amount: 200})),
			rules.TestCount("Regular", "Finish 100 tests", 100, rules.WithReward(core.XPReward{Amount: 1000})),
			rules.TestCount("Resident", "Finish 1000 tests", 1000, rules.WithReward(core.XPReward{Amount: 5000})),
		),
	)
}

// seasonCategory lays the season badges out as an XP ladder: the i-th
// badge unlocks at (i+1) * 40000 season XP.
func seasonCategory(season core.SeasonSnapshot) Category {
	members := make([]rules.Rule, 0, len(season.Badges))
	for i, badge := range season.Badges {
		threshold := season.TierThreshold(i)
		members = append(members, rules.SeasonXP(
			"Season: "+badge,
			fmt.Sprintf("Earn %d XP this season", threshold),
			threshold,
			rules.WithImmutable(),
			rules.WithReward(core.BadgeReward{ID: badge}),
		))
	}
	return MustCategory("Season", "This season's badge ladder", "trophy", nil, Ladder(members...))
}

// DailyPool is the fixed pool the daily selector draws from. Weights bias
// the draw toward volume challenges over specialist ones.
func DailyPool() []daily.Weighted {
	return []daily.Weighted{
		{Weight: 6, Rule: rules.TestsIn24h("Quick Ten", "Finish 10 tests today", 10)},
		{Weight: 5, Rule: rules.WordsIn24h("Word Dash", "Type 2000 words today", 2000)},
		{Weight: 4, Rule: rules.PerfectRun("Triple Perfect", "3 perfect-accuracy tests in a row", 3)},
		{Weight: 4, Rule: rules.SpeedRun("Speed Burst", "5 tests in a row at 80+ WPM", 5, 80)},
		{Weight: 3, Rule: rules.Consistency("Sharp Hour", "98%+ accuracy on 8 of your last 10 tests", 10, 98, 8)},
		{Weight: 2, Rule: rules.TestTypeSampler("Mix It Up", "Play 3 different test types", 3)},
	}
}
