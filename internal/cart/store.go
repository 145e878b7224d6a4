package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/restaurant-storefront/pkg/cache"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Store persists one cart per storefront session.
type Store interface {
	Load(ctx context.Context, sessionID string) (Cart, error)
	// Update applies fn to the stored cart and saves the result only if nothing
	// else wrote the cart in between, retrying fn on a lost race.
	Update(ctx context.Context, sessionID string, fn func(Cart) (Cart, error)) (Cart, error)
}

// errUnchanged lets an update function leave the stored cart as it is.
var errUnchanged = errors.New("cart unchanged")

// ErrContended is returned when an update keeps losing races with other writers.
var ErrContended = errors.New("cart changed concurrently")

const maxUpdateAttempts = 5

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	RunScript(ctx context.Context, script *redis.Script, keys []string, args ...any) (any, error)
	CartKey(sessionID string) string
}

// swapScript replaces the cart only while it still holds the value the caller read.
var swapScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1]) or ''
if current ~= ARGV[1] then
  return 0
end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// RedisStore keeps carts as timestamped cache entries. Entries older than ttl
// are discarded on load even if redis has not evicted them yet.
type RedisStore struct {
	kv   kvStore
	ttl  time.Duration
	now  func() time.Time
	logg *logger.Logger
}

// NewRedisStore builds the session cart store.
func NewRedisStore(kv kvStore, ttl time.Duration, logg *logger.Logger) (*RedisStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis store required")
	}
	return &RedisStore{kv: kv, ttl: ttl, now: time.Now, logg: logg}, nil
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (Cart, error) {
	key := s.kv.CartKey(sessionID)
	_, c, expired, err := s.read(ctx, key)
	if err != nil {
		return Cart{}, err
	}
	if expired {
		if delErr := s.kv.Del(ctx, key); delErr != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", delErr.Error()), "cart.expired_delete_failed")
		}
	}
	return c, nil
}

func (s *RedisStore) Update(ctx context.Context, sessionID string, fn func(Cart) (Cart, error)) (Cart, error) {
	key := s.kv.CartKey(sessionID)
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		raw, current, _, err := s.read(ctx, key)
		if err != nil {
			return Cart{}, err
		}
		next, err := fn(current)
		if errors.Is(err, errUnchanged) {
			return current, nil
		}
		if err != nil {
			return Cart{}, err
		}
		encoded, err := cache.Encode(cache.NewEntry(next, s.now()))
		if err != nil {
			return Cart{}, err
		}
		res, err := s.kv.RunScript(ctx, swapScript, []string{key}, raw, encoded, s.ttl.Milliseconds())
		if err != nil {
			return Cart{}, fmt.Errorf("save cart: %w", err)
		}
		if swapped, _ := res.(int64); swapped == 1 {
			return next, nil
		}
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "attempt", attempt+1), "cart.update_retry")
		}
	}
	return Cart{}, ErrContended
}

// read returns the raw stored value ("" when absent) with the cart it holds.
// Corrupt and expired entries read as an empty cart.
func (s *RedisStore) read(ctx context.Context, key string) (string, Cart, bool, error) {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return "", Cart{Items: []Item{}}, false, nil
	}
	if err != nil {
		return "", Cart{}, false, fmt.Errorf("load cart: %w", err)
	}

	entry, err := cache.Decode[Cart](raw)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.decode_failed")
		}
		return raw, Cart{Items: []Item{}}, false, nil
	}
	if cache.IsExpired(entry, s.now(), s.ttl) {
		return raw, Cart{Items: []Item{}}, true, nil
	}
	if entry.Value.Items == nil {
		entry.Value.Items = []Item{}
	}
	return raw, entry.Value, false, nil
}
