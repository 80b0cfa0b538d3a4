// Package rules defines the progress-rule contract shared by achievements
// and challenges: a named unit that reports (current, target) progress for
// a user snapshot and derives completion from it.
package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"typequest/core"
)

// ErrInvalidConfig marks rules constructed with broken invariants.
// Configuration errors are fatal at startup and never recovered.
var ErrInvalidConfig = errors.New("invalid rule configuration")

// Env carries the ambient inputs individual rules may need beyond the user
// snapshot: the active season, the command registry, and the set of
// challenge names the caller asserts were completed by the current action.
type Env struct {
	Season    core.SeasonSnapshot
	Commands  map[string]struct{}
	Completed map[string]struct{}
	Now       time.Time
}

// Clock returns the pass timestamp, defaulting to the wall clock.
func (e *Env) Clock() time.Time {
	if e == nil || e.Now.IsZero() {
		return time.Now().UTC()
	}
	return e.Now
}

// CompletedThisPass reports whether the caller marked name as completed as
// a side effect of the current action.
func (e *Env) CompletedThisPass(name string) bool {
	if e == nil {
		return false
	}
	_, ok := e.Completed[name]
	return ok
}

// Progress is a rule's position against its target. Target is always > 0.
type Progress struct {
	Current float64 `json:"current"`
	Target  float64 `json:"target"`
}

// Done applies the completion test.
func (p Progress) Done() bool { return p.Current >= p.Target }

// Ratio returns current/target clamped to [0, 1] for display bars.
func (p Progress) Ratio() float64 {
	if p.Target <= 0 {
		return 0
	}
	r := p.Current / p.Target
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// ProgressFunc computes a rule's live progress. The returned target must
// be positive; implementations must tolerate empty or partial snapshots
// (empty history means zero progress, never an error).
type ProgressFunc func(ctx context.Context, env *Env, u *core.UserState) (current, target float64, err error)

// Rule is one achievement or challenge. Name is unique within its ladder,
// not globally: tiered ladders may reuse one name across ranks.
type Rule struct {
	Name        string
	Description string
	// Immutable makes a recorded completion sticky: a later regression of
	// the underlying stat cannot un-complete the rule.
	Immutable bool
	Reward    core.Reward

	progress ProgressFunc
	target   float64 // static target when known, 0 when dynamic
}

// Option configures optional rule attributes.
type Option func(*Rule)

// WithReward attaches a grant to the rule.
func WithReward(r core.Reward) Option { return func(ru *Rule) { ru.Reward = r } }

// WithImmutable marks completion as sticky once recorded.
func WithImmutable() Option { return func(ru *Rule) { ru.Immutable = true } }

// New builds a rule around a custom progress function.
func New(name, description string, fn ProgressFunc, opts ...Option) (Rule, error) {
	r := Rule{Name: name, Description: description, progress: fn}
	for _, o := range opts {
		o(&r)
	}
	if r.Name == "" {
		return Rule{}, fmt.Errorf("%w: empty name", ErrInvalidConfig)
	}
	if r.progress == nil {
		return Rule{}, fmt.Errorf("%w: rule %q has no progress function", ErrInvalidConfig, name)
	}
	if r.Reward != nil {
		if err := r.Reward.Validate(); err != nil {
			return Rule{}, fmt.Errorf("%w: rule %q reward: %v", ErrInvalidConfig, name, err)
		}
	}
	return r, nil
}

// Must is New for static configuration; it panics on invalid rules.
func Must(name, description string, fn ProgressFunc, opts ...Option) Rule {
	r, err := New(name, description, fn, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// StaticTarget returns the rule's fixed target, or 0 when the target is
// derived from the environment at evaluation time.
func (r Rule) StaticTarget() float64 { return r.target }

// Rewarded returns a copy of the rule carrying the given grant. Used when
// a ladder attaches rewards at milestone boundaries.
func (r Rule) Rewarded(rw core.Reward) (Rule, error) {
	if rw != nil {
		if err := rw.Validate(); err != nil {
			return Rule{}, fmt.Errorf("%w: rule %q reward: %v", ErrInvalidConfig, r.Name, err)
		}
	}
	r.Reward = rw
	return r, nil
}

// Progress delegates to the rule's progress function. For an immutable
// rule with a recorded completion, current is forced to target so a stat
// regression cannot revoke the achievement.
func (r Rule) Progress(ctx context.Context, env *Env, u *core.UserState) (Progress, error) {
	cur, tgt, err := r.progress(ctx, env, u)
	if err != nil {
		return Progress{}, fmt.Errorf("rule %q: %w", r.Name, err)
	}
	if tgt <= 0 {
		return Progress{}, fmt.Errorf("rule %q: non-positive target %v", r.Name, tgt)
	}
	if cur < 0 {
		cur = 0
	}
	if r.Immutable && u.CompletionCount(r.Name) > 0 && cur < tgt {
		cur = tgt
	}
	return Progress{Current: cur, Target: tgt}, nil
}

// IsCompleted reports whether the rule's target is met for the snapshot.
func (r Rule) IsCompleted(ctx context.Context, env *Env, u *core.UserState) (bool, error) {
	p, err := r.Progress(ctx, env, u)
	if err != nil {
		return false, err
	}
	return p.Done(), nil
}

// static wraps a snapshot-only counter into a ProgressFunc with a fixed
// positive target, panicking on a non-positive target at construction.
func static(name string, target float64, current func(env *Env, u *core.UserState) float64) ProgressFunc {
	if target <= 0 {
		panic(fmt.Errorf("%w: rule %q target must be > 0, got %v", ErrInvalidConfig, name, target))
	}
	return func(_ context.Context, env *Env, u *core.UserState) (float64, float64, error) {
		return current(env, u), target, nil
	}
}
