// Package redis provides a Redis-backed storage adapter. The snapshot is
// stored as one JSON blob per user; an XP sorted set and a per-user badge
// set are maintained alongside it for cheap ranking and badge queries. All
// three writes happen atomically in a Lua script.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"typequest/core"
	"typequest/engine"
)

const (
	stateKeyFmt  = "tq:state:%s"
	badgesKeyFmt = "tq:badges:%s"
	xpKey        = "tq:xp"
)

// saveScript writes the state blob, mirrors XP into the ranking zset, and
// rewrites the badge set in one atomic step.
var saveScript = goredis.NewScript(`
redis.call('SET', KEYS[1], ARGV[1])
redis.call('ZADD', KEYS[2], ARGV[2], ARGV[3])
redis.call('DEL', KEYS[3])
for i = 4, #ARGV do
  redis.call('SADD', KEYS[3], ARGV[i])
end
return 1
`)

// Config holds Redis connection settings.
type Config struct {
	Addr     string `json:"addr" env:"TYPEQUEST_REDIS_ADDR"`
	Password string `json:"password,omitempty" env:"TYPEQUEST_REDIS_PASSWORD"`
	DB       int    `json:"db" env:"TYPEQUEST_REDIS_DB"`
}

// DefaultConfig returns settings for a local Redis.
func DefaultConfig() Config {
	return Config{Addr: "localhost:6379"}
}

// Store is the Redis storage adapter.
type Store struct {
	client goredis.UniversalClient
}

// New wraps an existing client.
func New(client goredis.UniversalClient) *Store {
	return &Store{client: client}
}

// NewFromAddr dials a standalone Redis and verifies connectivity.
func NewFromAddr(ctx context.Context, addr, password string, db int) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return &Store{client: client}, nil
}

// NewFromConfig dials Redis using the given settings.
func NewFromConfig(ctx context.Context, cfg Config) (*Store, error) {
	return NewFromAddr(ctx, cfg.Addr, cfg.Password, cfg.DB)
}

// GetState loads and decodes the user's snapshot blob.
func (s *Store) GetState(ctx context.Context, user core.UserID) (core.UserState, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf(stateKeyFmt, user)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return core.UserState{}, engine.ErrNotFound
	}
	if err != nil {
		return core.UserState{}, fmt.Errorf("redis: get state %s: %w", user, err)
	}
	var st core.UserState
	if err := json.Unmarshal(data, &st); err != nil {
		return core.UserState{}, fmt.Errorf("redis: decode state %s: %w", user, err)
	}
	return st, nil
}

// SaveState persists the snapshot, the XP mirror, and the badge set
// atomically.
func (s *Store) SaveState(ctx context.Context, state core.UserState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("redis: encode state %s: %w", state.UserID, err)
	}
	keys := []string{
		fmt.Sprintf(stateKeyFmt, state.UserID),
		xpKey,
		fmt.Sprintf(badgesKeyFmt, state.UserID),
	}
	argv := make([]any, 0, 3+len(state.Badges))
	argv = append(argv, string(blob), state.XP, string(state.UserID))
	for b := range state.Badges {
		argv = append(argv, b)
	}
	if err := saveScript.Run(ctx, s.client, keys, argv...).Err(); err != nil {
		return fmt.Errorf("redis: save state %s: %w", state.UserID, err)
	}
	return nil
}

// Delete removes all keys for a user.
func (s *Store) Delete(ctx context.Context, user core.UserID) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, fmt.Sprintf(stateKeyFmt, user))
	pipe.Del(ctx, fmt.Sprintf(badgesKeyFmt, user))
	pipe.ZRem(ctx, xpKey, string(user))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: delete %s: %w", user, err)
	}
	return nil
}

// TopXP returns the highest-XP users straight from the mirror zset.
func (s *Store) TopXP(ctx context.Context, n int64) ([]core.UserID, error) {
	ids, err := s.client.ZRevRange(ctx, xpKey, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: top xp: %w", err)
	}
	out := make([]core.UserID, len(ids))
	for i, id := range ids {
		out[i] = core.UserID(id)
	}
	return out, nil
}

// HasBadge checks badge ownership without decoding the full snapshot.
func (s *Store) HasBadge(ctx context.Context, user core.UserID, badge string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, fmt.Sprintf(badgesKeyFmt, user), badge).Result()
	if err != nil {
		return false, fmt.Errorf("redis: badge check %s: %w", user, err)
	}
	return ok, nil
}

var _ engine.Storage = (*Store)(nil)
