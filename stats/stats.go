// Package stats provides score-history aggregation shared by progress
// rules and display collaborators.
package stats

import (
	"time"

	"typequest/core"
)

// Predicate tests one score.
type Predicate func(core.Score) bool

// PerfectAccuracy reports whether a score is a 100% accuracy test.
func PerfectAccuracy(s core.Score) bool { return s.Accuracy >= 100 }

// AccuracyAtLeast returns a predicate for a minimum accuracy.
func AccuracyAtLeast(min float64) Predicate {
	return func(s core.Score) bool { return s.Accuracy >= min }
}

// WPMAtLeast returns a predicate for a minimum speed.
func WPMAtLeast(min float64) Predicate {
	return func(s core.Score) bool { return s.WPM >= min }
}

type run struct {
	value  bool
	length int
}

// runLengths groups the boolean image of scores under pred into runs of
// consecutive equal values, oldest first.
func runLengths(scores []core.Score, pred Predicate) []run {
	var runs []run
	for _, s := range scores {
		v := pred(s)
		if n := len(runs); n > 0 && runs[n-1].value == v {
			runs[n-1].length++
			continue
		}
		runs = append(runs, run{value: v, length: 1})
	}
	return runs
}

// TrailingRun returns the length of the unbroken run of scores satisfying
// pred, anchored at the most recent score. If the most recent score fails
// the predicate the run is 0, regardless of longer historical runs.
func TrailingRun(scores []core.Score, pred Predicate) int {
	runs := runLengths(scores, pred)
	if len(runs) == 0 {
		return 0
	}
	last := runs[len(runs)-1]
	if !last.value {
		return 0
	}
	return last.length
}

// CountInWindow counts scores satisfying pred among the last window
// entries. With fewer scores than the window, all of them are considered.
func CountInWindow(scores []core.Score, window int, pred Predicate) int {
	if window <= 0 {
		return 0
	}
	start := len(scores) - window
	if start < 0 {
		start = 0
	}
	count := 0
	for _, s := range scores[start:] {
		if pred(s) {
			count++
		}
	}
	return count
}

// CountSince counts scores with a timestamp at or after t.
func CountSince(scores []core.Score, t time.Time) int {
	count := 0
	for _, s := range scores {
		if !s.Timestamp.Before(t) {
			count++
		}
	}
	return count
}

// DistinctTestTypes returns the number of distinct test types played.
func DistinctTestTypes(scores []core.Score) int {
	seen := map[core.TestType]struct{}{}
	for _, s := range scores {
		seen[s.TestType] = struct{}{}
	}
	return len(seen)
}

// AccountAgeDays returns whole days elapsed since createdAt, never negative.
func AccountAgeDays(createdAt time.Time, now time.Time) int {
	if createdAt.IsZero() || now.Before(createdAt) {
		return 0
	}
	return int(now.Sub(createdAt).Hours() / 24)
}
