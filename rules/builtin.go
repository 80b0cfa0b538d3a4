package rules

import (
	"context"
	"fmt"

	"typequest/core"
	"typequest/stats"
)

// mustStatic builds a fixed-target rule from a snapshot counter.
func mustStatic(name, description string, target float64, current func(env *Env, u *core.UserState) float64, opts ...Option) Rule {
	r := Must(name, description, static(name, target, current), opts...)
	r.target = target
	return r
}

// HighestSpeed completes once the user's personal best reaches wpm.
func HighestSpeed(name, description string, wpm float64, opts ...Option) Rule {
	return mustStatic(name, description, wpm, func(_ *Env, u *core.UserState) float64 {
		return u.HighestSpeed
	}, opts...)
}

// WordsTyped completes once the lifetime word count reaches words.
func WordsTyped(name, description string, words int64, opts ...Option) Rule {
	return mustStatic(name, description, float64(words), func(_ *Env, u *core.UserState) float64 {
		return float64(u.Words)
	}, opts...)
}

// TestCount completes once the user has finished n typing tests.
func TestCount(name, description string, n int, opts ...Option) Rule {
	return mustStatic(name, description, float64(n), func(_ *Env, u *core.UserState) float64 {
		return float64(len(u.Scores))
	}, opts...)
}

// StreakDays completes at a daily-practice streak of days. Streaks reset,
// so catalog entries typically mark these immutable.
func StreakDays(name, description string, days int, opts ...Option) Rule {
	return mustStatic(name, description, float64(days), func(_ *Env, u *core.UserState) float64 {
		return float64(u.Streak)
	}, opts...)
}

// Votes completes once the user has cast n bot-list votes.
func Votes(name, description string, n int, opts ...Option) Rule {
	return mustStatic(name, description, float64(n), func(_ *Env, u *core.UserState) float64 {
		return float64(u.Votes)
	}, opts...)
}

// BadgesOwned completes once the user owns n badges.
func BadgesOwned(name, description string, n int, opts ...Option) Rule {
	return mustStatic(name, description, float64(n), func(_ *Env, u *core.UserState) float64 {
		return float64(len(u.Badges))
	}, opts...)
}

// PerfectRun completes on n consecutive 100% accuracy tests, counted
// backward from the most recent score. A broken run restarts at zero.
func PerfectRun(name, description string, n int, opts ...Option) Rule {
	return mustStatic(name, description, float64(n), func(_ *Env, u *core.UserState) float64 {
		return float64(stats.TrailingRun(u.Scores, stats.PerfectAccuracy))
	}, opts...)
}

// SpeedRun completes on n consecutive tests at or above minWPM, counted
// backward from the most recent score.
func SpeedRun(name, description string, n int, minWPM float64, opts ...Option) Rule {
	return mustStatic(name, description, float64(n), func(_ *Env, u *core.UserState) float64 {
		return float64(stats.TrailingRun(u.Scores, stats.WPMAtLeast(minWPM)))
	}, opts...)
}

// Consistency completes once needed of the last window tests hit minAcc
// accuracy. With fewer than window tests, all of them count.
func Consistency(name, description string, window int, minAcc float64, needed int, opts ...Option) Rule {
	return mustStatic(name, description, float64(needed), func(_ *Env, u *core.UserState) float64 {
		return float64(stats.CountInWindow(u.Scores, window, stats.AccuracyAtLeast(minAcc)))
	}, opts...)
}

// AccountAge completes once the account is days old.
func AccountAge(name, description string, days int, opts ...Option) Rule {
	return mustStatic(name, description, float64(days), func(env *Env, u *core.UserState) float64 {
		return float64(stats.AccountAgeDays(u.CreatedAt, env.Clock()))
	}, opts...)
}

// TestsIn24h completes on n tests within the trailing 24 hours.
func TestsIn24h(name, description string, n int, opts ...Option) Rule {
	return mustStatic(name, description, float64(n), func(_ *Env, u *core.UserState) float64 {
		return float64(u.Last24.TotalTests())
	}, opts...)
}

// WordsIn24h completes on n words typed within the trailing 24 hours.
func WordsIn24h(name, description string, n int, opts ...Option) Rule {
	return mustStatic(name, description, float64(n), func(_ *Env, u *core.UserState) float64 {
		return float64(u.Last24.TotalWords())
	}, opts...)
}

// TestTypeSampler completes once the user has played n distinct test types.
func TestTypeSampler(name, description string, n int, opts ...Option) Rule {
	return mustStatic(name, description, float64(n), func(_ *Env, u *core.UserState) float64 {
		return float64(stats.DistinctTestTypes(u.Scores))
	}, opts...)
}

// CommandExplorer completes once the user has run every registered
// command. The target tracks the live command registry, so it is dynamic.
func CommandExplorer(name, description string, opts ...Option) Rule {
	return Must(name, description, func(_ context.Context, env *Env, u *core.UserState) (float64, float64, error) {
		total := 1
		run := 0
		if env != nil && len(env.Commands) > 0 {
			total = len(env.Commands)
			for cmd := range env.Commands {
				if _, ok := u.CmdsRun[cmd]; ok {
					run++
				}
			}
		}
		return float64(run), float64(total), nil
	}, opts...)
}

// SeasonXP completes once season experience reaches threshold. Progress is
// zero while no season is active.
func SeasonXP(name, description string, threshold int64, opts ...Option) Rule {
	if threshold <= 0 {
		panic(fmt.Errorf("%w: rule %q target must be > 0, got %d", ErrInvalidConfig, name, threshold))
	}
	r := Must(name, description, func(_ context.Context, env *Env, u *core.UserState) (float64, float64, error) {
		cur := float64(0)
		if env != nil && env.Season.Enabled {
			cur = float64(u.XP)
		}
		return cur, float64(threshold), nil
	}, opts...)
	r.target = float64(threshold)
	return r
}
