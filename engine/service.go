package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"typequest/catalog"
	"typequest/core"
	"typequest/daily"
	"typequest/leaderboard"
	"typequest/rules"
)

// Service ties the evaluation engine to persistence, events, the daily
// selector, and the leaderboard. It owns the read-modify-write cycle: every
// state change loads a snapshot, folds the action in, evaluates, applies
// grants, and persists once.
type Service struct {
	store    Storage
	bus      *EventBus
	eng      *Engine
	selector *daily.Selector
	board    leaderboard.Board
	logger   *slog.Logger
	season   core.SeasonSnapshot
	commands map[string]struct{}
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*Service)

// WithEventBus overrides the default synchronous bus.
func WithEventBus(bus *EventBus) ServiceOption {
	return func(s *Service) { s.bus = bus }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithSeason supplies the active season snapshot. The season category is
// registered only when the snapshot is enabled.
func WithSeason(season core.SeasonSnapshot) ServiceOption {
	return func(s *Service) { s.season = season }
}

// WithCommands supplies the full command registry for command-coverage
// rules.
func WithCommands(cmds []string) ServiceOption {
	return func(s *Service) {
		s.commands = make(map[string]struct{}, len(cmds))
		for _, c := range cmds {
			s.commands[c] = struct{}{}
		}
	}
}

// WithDaily sets the daily challenge selector.
func WithDaily(sel *daily.Selector) ServiceOption {
	return func(s *Service) { s.selector = sel }
}

// WithBoard sets the leaderboard read model.
func WithBoard(b leaderboard.Board) ServiceOption {
	return func(s *Service) { s.board = b }
}

// WithEngine overrides the registry-derived engine, for tests that need a
// reduced category set.
func WithEngine(e *Engine) ServiceOption {
	return func(s *Service) { s.eng = e }
}

// NewService builds the service around a storage backend. Unset
// collaborators get working defaults: a sync bus, the full registry, the
// standard daily pool, and a skip-list board.
func NewService(store Storage, opts ...ServiceOption) *Service {
	if store == nil {
		panic("engine: nil storage")
	}
	s := &Service{
		store:  store,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.bus == nil {
		s.bus = NewEventBus(DispatchSync)
	}
	if s.eng == nil {
		s.eng = MustNew(catalog.Categories(s.season))
	}
	if s.selector == nil {
		sel, err := daily.NewSelector(catalog.DailyPool(), 3, 500, 1500)
		if err != nil {
			panic(err)
		}
		s.selector = sel
	}
	if s.board == nil {
		s.board = leaderboard.NewSkipList()
	}
	return s
}

// Result summarizes one evaluation pass.
type Result struct {
	State       core.UserState
	Unlocked    []CompletionEvent
	Completed   []catalog.Category
	DailyDone   []string
	BonusXP     int64
	RewardLines []string
}

// RecordScore folds a finished test into the user's snapshot and runs a
// full evaluation pass. completed names challenges the caller asserts were
// satisfied by this very action, used for event-shaped rules the snapshot
// cannot express.
func (s *Service) RecordScore(ctx context.Context, user core.UserID, score core.Score, completed ...string) (Result, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return Result{}, err
	}
	if score.Timestamp.IsZero() {
		score.Timestamp = time.Now().UTC()
	}

	state, err := s.loadOrCreate(ctx, user)
	if err != nil {
		return Result{}, err
	}
	before := state.Clone()
	state.ApplyScore(score)

	env := s.env(completed, score.Timestamp)
	res, err := s.evaluate(ctx, env, &before, &state, score.Timestamp)
	if err != nil {
		return Result{}, err
	}

	if err := s.store.SaveState(ctx, state); err != nil {
		return Result{}, fmt.Errorf("save state for %s: %w", user, err)
	}
	res.State = state
	s.board.Update(user, state.XP)

	s.bus.Publish(ctx, core.NewScoreRecorded(user, score.WPM))
	s.publishGrants(ctx, user, res, state.XP)
	return res, nil
}

// RecordVote credits a bot vote and re-evaluates community rules.
func (s *Service) RecordVote(ctx context.Context, user core.UserID, site string, at time.Time) (Result, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return Result{}, err
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	state, err := s.loadOrCreate(ctx, user)
	if err != nil {
		return Result{}, err
	}
	before := state.Clone()
	state.Votes++
	if site != "" {
		state.LastVoted[site] = at
	}
	state.Updated = at

	res, err := s.evaluate(ctx, s.env(nil, at), &before, &state, at)
	if err != nil {
		return Result{}, err
	}
	if err := s.store.SaveState(ctx, state); err != nil {
		return Result{}, fmt.Errorf("save state for %s: %w", user, err)
	}
	res.State = state
	s.board.Update(user, state.XP)
	s.publishGrants(ctx, user, res, state.XP)
	return res, nil
}

// RecordCommand marks a bot command as used and re-evaluates coverage
// rules.
func (s *Service) RecordCommand(ctx context.Context, user core.UserID, command string) (Result, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return Result{}, err
	}
	now := time.Now().UTC()
	state, err := s.loadOrCreate(ctx, user)
	if err != nil {
		return Result{}, err
	}
	before := state.Clone()
	if state.CmdsRun == nil {
		state.CmdsRun = map[string]struct{}{}
	}
	state.CmdsRun[command] = struct{}{}
	state.Updated = now

	res, err := s.evaluate(ctx, s.env(nil, now), &before, &state, now)
	if err != nil {
		return Result{}, err
	}
	if err := s.store.SaveState(ctx, state); err != nil {
		return Result{}, fmt.Errorf("save state for %s: %w", user, err)
	}
	res.State = state
	s.board.Update(user, state.XP)
	s.publishGrants(ctx, user, res, state.XP)
	return res, nil
}

// Sync re-evaluates a user against the current registry without folding in
// any new action. Missed grants from registry changes are healed here.
func (s *Service) Sync(ctx context.Context, user core.UserID) (Result, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return Result{}, err
	}
	now := time.Now().UTC()
	state, err := s.loadOrCreate(ctx, user)
	if err != nil {
		return Result{}, err
	}
	before := state.Clone()
	res, err := s.evaluate(ctx, s.env(nil, now), &before, &state, now)
	if err != nil {
		return Result{}, err
	}
	if len(res.Unlocked) > 0 || len(res.Completed) > 0 || len(res.DailyDone) > 0 {
		if err := s.store.SaveState(ctx, state); err != nil {
			return Result{}, fmt.Errorf("save state for %s: %w", user, err)
		}
	}
	res.State = state
	s.board.Update(user, state.XP)
	s.publishGrants(ctx, user, res, state.XP)
	return res, nil
}

func (s *Service) loadOrCreate(ctx context.Context, user core.UserID) (core.UserState, error) {
	state, err := s.store.GetState(ctx, user)
	if errors.Is(err, ErrNotFound) {
		st := core.NewUserState(user)
		st.CreatedAt = time.Now().UTC()
		return st, nil
	}
	if err != nil {
		return core.UserState{}, fmt.Errorf("load state for %s: %w", user, err)
	}
	return state, nil
}

func (s *Service) env(completed []string, now time.Time) *rules.Env {
	env := &rules.Env{Season: s.season, Commands: s.commands, Now: now}
	if len(completed) > 0 {
		env.Completed = make(map[string]struct{}, len(completed))
		for _, c := range completed {
			env.Completed[c] = struct{}{}
		}
	}
	return env
}

// evaluate runs achievements, category transitions, and daily challenges
// against the mutated snapshot. A progress error inside one category logs
// and degrades to the partial event set rather than aborting the action.
func (s *Service) evaluate(ctx context.Context, env *rules.Env, before, state *core.UserState, now time.Time) (Result, error) {
	events, err := s.eng.EvaluateAll(ctx, env, state)
	if err != nil {
		s.logger.Warn("evaluation degraded", "user", state.UserID, "error", err)
	}
	applied := ApplyEvents(state, events, now)

	transitions, terr := s.eng.CategoryTransitions(ctx, env, before, state)
	if terr != nil {
		s.logger.Warn("category transition check degraded", "user", state.UserID, "error", terr)
	}
	for _, c := range transitions {
		if c.Reward != nil {
			c.Reward.Apply(state)
			applied = append(applied, c.Reward)
		}
	}

	dailyDone, bonus, derr := s.evaluateDaily(ctx, env, state, now)
	if derr != nil {
		s.logger.Warn("daily evaluation degraded", "user", state.UserID, "error", derr)
	}
	if bonus > 0 {
		applied = append(applied, core.XPReward{Amount: bonus})
	}

	return Result{
		Unlocked:    events,
		Completed:   transitions,
		DailyDone:   dailyDone,
		BonusXP:     bonus,
		RewardLines: core.GroupRewards(applied),
	}, nil
}

// dailyKey scopes a daily completion record to its UTC day so tomorrow's
// identical challenge starts fresh.
func dailyKey(day time.Time, name string) string {
	return fmt.Sprintf("daily:%s:%s", day.Format("2006-01-02"), name)
}

// evaluateDaily records today's newly satisfied challenges and grants the
// bonus once when the whole set is done.
func (s *Service) evaluateDaily(ctx context.Context, env *rules.Env, state *core.UserState, now time.Time) ([]string, int64, error) {
	sel := s.selector.ForDay(now)
	var done []string
	allDone := true
	for _, ch := range sel.Challenges {
		key := dailyKey(sel.Day, ch.Name)
		if state.CompletionCount(key) > 0 {
			continue
		}
		ok := env.CompletedThisPass(ch.Name)
		if !ok {
			var err error
			ok, err = ch.IsCompleted(ctx, env, state)
			if err != nil {
				return done, 0, err
			}
		}
		if !ok {
			allDone = false
			continue
		}
		state.RecordCompletion(key, now)
		if ch.Reward != nil {
			ch.Reward.Apply(state)
		}
		done = append(done, ch.Name)
	}
	var bonus int64
	bonusKey := dailyKey(sel.Day, "bonus")
	if allDone && state.CompletionCount(bonusKey) == 0 {
		state.RecordCompletion(bonusKey, now)
		sel.Bonus.Apply(state)
		bonus = sel.Bonus.Amount
	}
	return done, bonus, nil
}

func (s *Service) publishGrants(ctx context.Context, user core.UserID, res Result, totalXP int64) {
	for _, ev := range res.Unlocked {
		tier := ev.Category.Members[ev.Position.Member].CurrentTier(&res.State)
		s.bus.Publish(ctx, core.NewAchievementUnlocked(user, ev.Rule.Name, ev.Category.Name, tier))
		switch rw := ev.Rule.Reward.(type) {
		case core.XPReward:
			s.bus.Publish(ctx, core.NewXPAwarded(user, rw.Amount, totalXP))
		case core.BadgeReward:
			s.bus.Publish(ctx, core.NewBadgeAwarded(user, rw.ID))
		}
	}
	for _, c := range res.Completed {
		s.bus.Publish(ctx, core.NewCategoryCompleted(user, c.Name))
		if rw, ok := c.Reward.(core.BadgeReward); ok {
			s.bus.Publish(ctx, core.NewBadgeAwarded(user, rw.ID))
		}
	}
	if res.BonusXP > 0 {
		s.bus.Publish(ctx, core.NewXPAwarded(user, res.BonusXP, totalXP))
	}
}

// MemberProgress is the display view of one category slot.
type MemberProgress struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Tier        int            `json:"tier"`
	Size        int            `json:"size"`
	Progress    rules.Progress `json:"progress"`
	Maxed       bool           `json:"maxed"`
}

// CategoryProgress is the display view of one category.
type CategoryProgress struct {
	Name     string           `json:"name"`
	Icon     string           `json:"icon"`
	Complete bool             `json:"complete"`
	Members  []MemberProgress `json:"members"`
}

// Progress renders the full registry for one user: per member the active
// rung, its live progress, and whether the ladder is maxed.
func (s *Service) Progress(ctx context.Context, user core.UserID) ([]CategoryProgress, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return nil, err
	}
	state, err := s.loadOrCreate(ctx, user)
	if err != nil {
		return nil, err
	}
	env := s.env(nil, time.Now().UTC())

	var out []CategoryProgress
	for _, c := range s.eng.Categories() {
		cp := CategoryProgress{Name: c.Name, Icon: c.Icon, Complete: true}
		for _, m := range c.Members {
			active := m.Active(&state)
			p, err := active.Progress(ctx, env, &state)
			if err != nil {
				return nil, err
			}
			maxed, err := m.IsComplete(ctx, env, &state)
			if err != nil {
				return nil, err
			}
			if !maxed {
				cp.Complete = false
			}
			cp.Members = append(cp.Members, MemberProgress{
				Name:        active.Name,
				Description: active.Description,
				Tier:        m.CurrentTier(&state),
				Size:        m.Size(),
				Progress:    p,
				Maxed:       maxed,
			})
		}
		out = append(out, cp)
	}
	return out, nil
}

// DailyChallenge is the display view of one daily challenge.
type DailyChallenge struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Progress    rules.Progress `json:"progress"`
	Done        bool           `json:"done"`
}

// DailyStatus is one user's standing against today's challenge set.
type DailyStatus struct {
	Day         time.Time        `json:"day"`
	Challenges  []DailyChallenge `json:"challenges"`
	BonusXP     int64            `json:"bonus_xp"`
	BonusEarned bool             `json:"bonus_earned"`
}

// Daily returns today's selection without user context.
func (s *Service) Daily(now time.Time) daily.Selection {
	return s.selector.ForDay(now)
}

// DailyFor reports the user's live progress against today's selection.
func (s *Service) DailyFor(ctx context.Context, user core.UserID, now time.Time) (DailyStatus, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return DailyStatus{}, err
	}
	state, err := s.loadOrCreate(ctx, user)
	if err != nil {
		return DailyStatus{}, err
	}
	sel := s.selector.ForDay(now)
	env := s.env(nil, now)

	status := DailyStatus{Day: sel.Day, BonusXP: sel.Bonus.Amount}
	for _, ch := range sel.Challenges {
		done := state.CompletionCount(dailyKey(sel.Day, ch.Name)) > 0
		p, err := ch.Progress(ctx, env, &state)
		if err != nil {
			return DailyStatus{}, err
		}
		status.Challenges = append(status.Challenges, DailyChallenge{
			Name:        ch.Name,
			Description: ch.Description,
			Progress:    p,
			Done:        done,
		})
	}
	status.BonusEarned = state.CompletionCount(dailyKey(sel.Day, "bonus")) > 0
	return status, nil
}

// GetState loads one user's snapshot, creating a fresh one for unknown
// users.
func (s *Service) GetState(ctx context.Context, user core.UserID) (core.UserState, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return core.UserState{}, err
	}
	return s.loadOrCreate(ctx, user)
}

// TopN returns the leaderboard's first n entries.
func (s *Service) TopN(n int) []leaderboard.Entry { return s.board.TopN(n) }

// Rank returns the user's 1-based leaderboard position.
func (s *Service) Rank(user core.UserID) (int, bool) { return s.board.Rank(user) }

// Subscribe registers an event handler and returns its unsubscribe func.
func (s *Service) Subscribe(typ core.EventType, fn func(context.Context, core.Event)) func() {
	return s.bus.Subscribe(typ, fn)
}

// Close releases the event bus workers.
func (s *Service) Close() { s.bus.Close() }
