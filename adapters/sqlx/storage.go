// Package sqlx provides a SQL storage adapter over jmoiron/sqlx. The
// snapshot is persisted as a JSON document with the XP total broken out
// into its own column for ranking queries.
package sqlx

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"typequest/core"
	"typequest/engine"
)

// Driver names a supported SQL backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS user_states (
    user_id TEXT PRIMARY KEY,
    state   JSONB NOT NULL,
    xp      BIGINT NOT NULL DEFAULT 0,
    updated TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS user_states_xp_idx ON user_states (xp DESC);
`

// Config holds SQL connection settings.
type Config struct {
	Driver Driver `json:"driver" env:"TYPEQUEST_SQL_DRIVER"`
	DSN    string `json:"dsn,omitempty" env:"TYPEQUEST_SQL_DSN"`
}

// DefaultConfig returns settings for a local database of the given driver.
func DefaultConfig(driver Driver) Config {
	return Config{Driver: driver}
}

// Store is the SQL storage adapter.
type Store struct {
	db *sqlx.DB
}

// New dials the database and verifies connectivity.
func New(ctx context.Context, driver Driver, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlx: connect %s: %w", driver, err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{db: db}, nil
}

// NewFromConfig dials the database using the given settings.
func NewFromConfig(ctx context.Context, cfg Config) (*Store, error) {
	return New(ctx, cfg.Driver, cfg.DSN)
}

// NewWithDB wraps an existing connection, used by tests with sqlmock.
func NewWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the schema if missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlx: migrate: %w", err)
	}
	return nil
}

// GetState loads and decodes one user's snapshot.
func (s *Store) GetState(ctx context.Context, user core.UserID) (core.UserState, error) {
	var blob []byte
	err := s.db.QueryRowxContext(ctx,
		`SELECT state FROM user_states WHERE user_id = $1`, string(user),
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserState{}, engine.ErrNotFound
	}
	if err != nil {
		return core.UserState{}, fmt.Errorf("sqlx: get state %s: %w", user, err)
	}
	var st core.UserState
	if err := json.Unmarshal(blob, &st); err != nil {
		return core.UserState{}, fmt.Errorf("sqlx: decode state %s: %w", user, err)
	}
	return st, nil
}

// SaveState upserts the snapshot document.
func (s *Store) SaveState(ctx context.Context, state core.UserState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("sqlx: encode state %s: %w", state.UserID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_states (user_id, state, xp, updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET state = EXCLUDED.state, xp = EXCLUDED.xp, updated = EXCLUDED.updated`,
		string(state.UserID), blob, state.XP, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlx: save state %s: %w", state.UserID, err)
	}
	return nil
}

// Delete removes one user's row.
func (s *Store) Delete(ctx context.Context, user core.UserID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM user_states WHERE user_id = $1`, string(user)); err != nil {
		return fmt.Errorf("sqlx: delete %s: %w", user, err)
	}
	return nil
}

// TopXP returns the highest-XP user ids via the xp column, avoiding JSON
// decoding of every row.
func (s *Store) TopXP(ctx context.Context, n int) ([]core.UserID, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids,
		`SELECT user_id FROM user_states ORDER BY xp DESC LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("sqlx: top xp: %w", err)
	}
	out := make([]core.UserID, len(ids))
	for i, id := range ids {
		out[i] = core.UserID(id)
	}
	return out, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

var _ engine.Storage = (*Store)(nil)
