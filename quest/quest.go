// Package quest is the embedding facade: one call builds a fully wired
// achievement service for bots that run everything in-process.
package quest

import (
	"log/slog"

	"typequest/adapters/memory"
	"typequest/core"
	"typequest/daily"
	"typequest/engine"
	"typequest/leaderboard"
	"typequest/realtime"
)

// Option configures the service builder.
type Option func(*settings)

type settings struct {
	storage  engine.Storage
	mode     engine.DispatchMode
	hub      *realtime.Hub
	season   core.SeasonSnapshot
	commands []string
	selector *daily.Selector
	board    leaderboard.Board
	logger   *slog.Logger
}

// WithStorage sets the persistence adapter.
func WithStorage(s engine.Storage) Option { return func(c *settings) { c.storage = s } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *settings) { c.mode = m } }

// WithRealtime wires a hub to receive all service events.
func WithRealtime(h *realtime.Hub) Option { return func(c *settings) { c.hub = h } }

// WithSeason sets the active season snapshot.
func WithSeason(s core.SeasonSnapshot) Option { return func(c *settings) { c.season = s } }

// WithCommands sets the bot command registry for coverage achievements.
func WithCommands(cmds []string) Option { return func(c *settings) { c.commands = cmds } }

// WithDaily overrides the default daily challenge selector.
func WithDaily(sel *daily.Selector) Option { return func(c *settings) { c.selector = sel } }

// WithBoard overrides the default skip-list leaderboard.
func WithBoard(b leaderboard.Board) Option { return func(c *settings) { c.board = b } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(c *settings) { c.logger = l } }

// New builds a configured service. Defaults: in-memory storage, async
// dispatch, the full registry, the standard daily pool.
func New(opts ...Option) *engine.Service {
	cfg := &settings{mode: engine.DispatchAsync}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.storage == nil {
		cfg.storage = memory.New()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	svcOpts := []engine.ServiceOption{
		engine.WithEventBus(engine.NewEventBus(cfg.mode)),
		engine.WithLogger(cfg.logger),
		engine.WithSeason(cfg.season),
		engine.WithCommands(cfg.commands),
	}
	if cfg.selector != nil {
		svcOpts = append(svcOpts, engine.WithDaily(cfg.selector))
	}
	if cfg.board != nil {
		svcOpts = append(svcOpts, engine.WithBoard(cfg.board))
	}
	svc := engine.NewService(cfg.storage, svcOpts...)
	if cfg.hub != nil {
		cfg.hub.Attach(svc)
	}
	return svc
}
