// Package daily selects the day's challenge set by deterministic weighted
// sampling. The selection is a pure function of the UTC day-start seed, so
// every caller on the same day computes an identical set with no shared
// state; the per-day cache is an optimization only.
package daily

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"typequest/core"
	"typequest/rules"
)

// ErrPoolExhausted is returned when a draw requests more challenges than
// the pool holds. The policy is a hard error, not a clamp, so a
// misconfigured pool fails loudly.
var ErrPoolExhausted = errors.New("daily: draw count exceeds pool size")

// Weighted pairs a challenge with its sampling weight.
type Weighted struct {
	Rule   rules.Rule
	Weight int
}

// Selection is one day's challenge set plus the bonus for completing all
// of them.
type Selection struct {
	Day        time.Time
	Challenges []rules.Rule
	Bonus      core.XPReward
}

// DayStart truncates t to the start of its UTC day.
func DayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Draw samples k challenges without replacement using weighted random
// choice seeded by seed. Chosen items leave the pool, so weights
// re-normalize implicitly and no duplicates occur. The same seed always
// yields the same ordered selection.
func Draw(seed int64, pool []Weighted, k int) ([]rules.Rule, *rand.Rand, error) {
	if k > len(pool) {
		return nil, nil, fmt.Errorf("%w: want %d of %d", ErrPoolExhausted, k, len(pool))
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	remaining := append([]Weighted(nil), pool...)
	picked := make([]rules.Rule, 0, k)
	for len(picked) < k {
		total := 0
		for _, w := range remaining {
			total += w.Weight
		}
		r := rng.IntN(total)
		idx := 0
		for i, w := range remaining {
			if r < w.Weight {
				idx = i
				break
			}
			r -= w.Weight
		}
		picked = append(picked, remaining[idx].Rule)
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return picked, rng, nil
}

// Selector owns the challenge pool, the draw size, and the bonus XP range.
// It caches only the current day's selection.
type Selector struct {
	pool     []Weighted
	count    int
	bonusMin int64
	bonusMax int64

	mu        sync.Mutex
	cachedDay int64
	cached    Selection
	hasCache  bool
}

// NewSelector validates the pool up front so later draws cannot fail.
func NewSelector(pool []Weighted, count int, bonusMin, bonusMax int64) (*Selector, error) {
	if count <= 0 || count > len(pool) {
		return nil, fmt.Errorf("daily: count %d out of range for pool of %d", count, len(pool))
	}
	for _, w := range pool {
		if w.Weight <= 0 {
			return nil, fmt.Errorf("daily: challenge %q has non-positive weight %d", w.Rule.Name, w.Weight)
		}
	}
	if bonusMin < 0 || bonusMax < bonusMin {
		return nil, fmt.Errorf("daily: invalid bonus range [%d, %d]", bonusMin, bonusMax)
	}
	return &Selector{pool: append([]Weighted(nil), pool...), count: count, bonusMin: bonusMin, bonusMax: bonusMax}, nil
}

// ForDay returns the selection for the day containing t.
func (s *Selector) ForDay(t time.Time) Selection {
	day := DayStart(t)
	seed := day.Unix()

	s.mu.Lock()
	if s.hasCache && s.cachedDay == seed {
		sel := s.cached
		s.mu.Unlock()
		return sel
	}
	s.mu.Unlock()

	sel := s.compute(day, seed)

	s.mu.Lock()
	s.cachedDay = seed
	s.cached = sel
	s.hasCache = true
	s.mu.Unlock()
	return sel
}

// ForDayUnix is ForDay keyed by a raw day-start unix timestamp.
func (s *Selector) ForDayUnix(dayStartUnix int64) Selection {
	return s.ForDay(time.Unix(dayStartUnix, 0))
}

func (s *Selector) compute(day time.Time, seed int64) Selection {
	// NewSelector guarantees count <= len(pool), so Draw cannot fail.
	picked, rng, err := Draw(seed, s.pool, s.count)
	if err != nil {
		panic(err)
	}
	bonus := s.bonusMin
	if s.bonusMax > s.bonusMin {
		bonus += rng.Int64N(s.bonusMax - s.bonusMin + 1)
	}
	return Selection{Day: day, Challenges: picked, Bonus: core.XPReward{Amount: bonus}}
}
