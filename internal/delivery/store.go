package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateStore keeps one fee state per session behind a monotonic generation counter.
type StateStore interface {
	NextGeneration(ctx context.Context, sessionID string) (int64, error)
	Commit(ctx context.Context, sessionID string, state State) (bool, error)
	Load(ctx context.Context, sessionID string) (*State, error)
	Invalidate(ctx context.Context, sessionID string) error
}

type stateKV interface {
	Get(ctx context.Context, key string) (string, error)
	RunScript(ctx context.Context, script *redis.Script, keys []string, args ...any) (any, error)
	DeliveryGenerationKey(sessionID string) string
	DeliveryStateKey(sessionID string) string
}

// commitScript writes the state only while its generation is still the newest issued.
var commitScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current ~= tonumber(ARGV[1]) then
  return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// bumpScript issues the next generation and keeps the counter expiring with the state.
var bumpScript = redis.NewScript(`
local gen = redis.call('INCR', KEYS[1])
redis.call('PEXPIRE', KEYS[1], ARGV[1])
return gen
`)

// invalidateScript supersedes in-flight resolutions and drops the committed state.
var invalidateScript = redis.NewScript(`
redis.call('INCR', KEYS[1])
redis.call('PEXPIRE', KEYS[1], ARGV[1])
redis.call('DEL', KEYS[2])
return 1
`)

// RedisStateStore is the StateStore used in production.
type RedisStateStore struct {
	kv  stateKV
	ttl time.Duration
}

func NewRedisStateStore(kv stateKV, ttl time.Duration) (*RedisStateStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis store required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("state ttl must be positive")
	}
	return &RedisStateStore{kv: kv, ttl: ttl}, nil
}

func (s *RedisStateStore) NextGeneration(ctx context.Context, sessionID string) (int64, error) {
	res, err := s.kv.RunScript(ctx, bumpScript, []string{s.kv.DeliveryGenerationKey(sessionID)}, s.ttl.Milliseconds())
	if err != nil {
		return 0, fmt.Errorf("bump delivery generation: %w", err)
	}
	gen, ok := res.(int64)
	if !ok {
		return 0, fmt.Errorf("bump delivery generation: unexpected reply %T", res)
	}
	return gen, nil
}

func (s *RedisStateStore) Commit(ctx context.Context, sessionID string, state State) (bool, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return false, fmt.Errorf("encode delivery state: %w", err)
	}
	res, err := s.kv.RunScript(ctx, commitScript,
		[]string{s.kv.DeliveryGenerationKey(sessionID), s.kv.DeliveryStateKey(sessionID)},
		state.Generation, string(raw), s.ttl.Milliseconds())
	if err != nil {
		return false, fmt.Errorf("commit delivery state: %w", err)
	}
	committed, _ := res.(int64)
	return committed == 1, nil
}

func (s *RedisStateStore) Load(ctx context.Context, sessionID string) (*State, error) {
	raw, err := s.kv.Get(ctx, s.kv.DeliveryStateKey(sessionID))
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load delivery state: %w", err)
	}
	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, nil
	}
	return &state, nil
}

// Invalidate supersedes any in-flight resolution and drops the stored state.
func (s *RedisStateStore) Invalidate(ctx context.Context, sessionID string) error {
	_, err := s.kv.RunScript(ctx, invalidateScript,
		[]string{s.kv.DeliveryGenerationKey(sessionID), s.kv.DeliveryStateKey(sessionID)},
		s.ttl.Milliseconds())
	if err != nil {
		return fmt.Errorf("invalidate delivery state: %w", err)
	}
	return nil
}
