package engine

import (
	"context"
	"fmt"
	"time"

	"typequest/catalog"
	"typequest/core"
	"typequest/rules"
)

// Position locates a completion within the registry's declared order.
type Position struct {
	Category int `json:"category"`
	Member   int `json:"member"`
}

// CompletionEvent signals that a rule's target was newly met and is not
// yet recorded in the user's achievements. SubIndex is the flat ladder
// index when the rule's name repeats within its ladder, -1 otherwise.
type CompletionEvent struct {
	Rule     rules.Rule
	SubIndex int
	Category catalog.Category
	Position Position
}

// Engine walks the registry against user snapshots. It classifies only:
// it never mutates state, so re-evaluating an unchanged snapshot yields
// the identical event set.
type Engine struct {
	cats []catalog.Category
}

// New validates the registry: at least one category, unique names.
func New(cats []catalog.Category) (*Engine, error) {
	if len(cats) == 0 {
		return nil, fmt.Errorf("%w: no categories", rules.ErrInvalidConfig)
	}
	seen := map[string]struct{}{}
	for _, c := range cats {
		if _, ok := seen[c.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate category %q", rules.ErrInvalidConfig, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return &Engine{cats: append([]catalog.Category(nil), cats...)}, nil
}

// MustNew is New for static configuration.
func MustNew(cats []catalog.Category) *Engine {
	e, err := New(cats)
	if err != nil {
		panic(err)
	}
	return e
}

// Categories returns the registry in declared order.
func (e *Engine) Categories() []catalog.Category { return e.cats }

// Evaluate yields the newly-completed rules of one category, in ladder
// order. A rule is emitted when it is satisfied (or asserted completed
// this pass via env) and the user has banked fewer completions of its
// name than its position in the ladder demands. The positional count
// guard also caps emissions at ladder length minus recorded count, so a
// bulk stat jump can complete several tiers in one pass without ever
// over-awarding.
func (e *Engine) Evaluate(ctx context.Context, env *rules.Env, u *core.UserState, category int) ([]CompletionEvent, error) {
	if category < 0 || category >= len(e.cats) {
		return nil, fmt.Errorf("engine: category index %d out of range", category)
	}
	cat := e.cats[category]
	var events []CompletionEvent
	for mi, m := range cat.Members {
		flat := m.Rules()
		occurrences := map[string]int{}
		for _, r := range flat {
			occurrences[r.Name]++
		}
		seen := map[string]int{}
		for i, r := range flat {
			seen[r.Name]++
			// Dedup guard: the user already banked at least this many
			// completions of this name, so this rung is not new.
			if seen[r.Name] <= u.CompletionCount(r.Name) {
				continue
			}
			done := env.CompletedThisPass(r.Name)
			if !done {
				var err error
				done, err = r.IsCompleted(ctx, env, u)
				if err != nil {
					return events, fmt.Errorf("category %q: %w", cat.Name, err)
				}
			}
			if !done {
				continue
			}
			sub := -1
			if occurrences[r.Name] > 1 {
				sub = i
			}
			events = append(events, CompletionEvent{
				Rule:     r,
				SubIndex: sub,
				Category: cat,
				Position: Position{Category: category, Member: mi},
			})
		}
	}
	return events, nil
}

// EvaluateAll walks every category in declared order. A progress error
// aborts the failing category and stops the pass; events emitted before
// the failure are returned alongside the error so the caller can decide
// to apply them or retry per category.
func (e *Engine) EvaluateAll(ctx context.Context, env *rules.Env, u *core.UserState) ([]CompletionEvent, error) {
	var events []CompletionEvent
	for i := range e.cats {
		batch, err := e.Evaluate(ctx, env, u, i)
		events = append(events, batch...)
		if err != nil {
			return events, err
		}
	}
	return events, nil
}

// CategoryTransitions reports categories that are complete for the after
// snapshot but were not for the before snapshot. Re-deriving from both
// snapshots keeps the transition idempotent: an already-complete category
// never fires again.
func (e *Engine) CategoryTransitions(ctx context.Context, env *rules.Env, before, after *core.UserState) ([]catalog.Category, error) {
	var out []catalog.Category
	for _, c := range e.cats {
		nowDone, err := c.IsComplete(ctx, env, after)
		if err != nil {
			return out, err
		}
		if !nowDone {
			continue
		}
		wasDone, err := c.IsComplete(ctx, env, before)
		if err != nil {
			return out, err
		}
		if !wasDone {
			out = append(out, c)
		}
	}
	return out, nil
}

// ApplyEvents records each completion and applies its reward exactly once
// on the caller's snapshot copy. The engine itself never calls this; the
// split keeps evaluation side-effect free and lets the caller batch all
// grants into one persistence write. Returns the applied rewards in event
// order for display grouping.
func ApplyEvents(u *core.UserState, events []CompletionEvent, now time.Time) []core.Reward {
	var applied []core.Reward
	for _, ev := range events {
		u.RecordCompletion(ev.Rule.Name, now)
		if ev.Rule.Reward != nil {
			ev.Rule.Reward.Apply(u)
			applied = append(applied, ev.Rule.Reward)
		}
	}
	return applied
}
