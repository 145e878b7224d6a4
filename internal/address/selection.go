package address

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type selectionKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	AddressSelectionKey(sessionID string) string
}

// SelectionStore remembers which address a session picked for checkout.
type SelectionStore struct {
	kv  selectionKV
	ttl time.Duration
}

func NewSelectionStore(kv selectionKV, ttl time.Duration) (*SelectionStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis store required")
	}
	return &SelectionStore{kv: kv, ttl: ttl}, nil
}

// Get returns the selected address id or "" when nothing was picked.
func (s *SelectionStore) Get(ctx context.Context, sessionID string) (string, error) {
	id, err := s.kv.Get(ctx, s.kv.AddressSelectionKey(sessionID))
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return id, err
}

func (s *SelectionStore) Set(ctx context.Context, sessionID, addressID string) error {
	return s.kv.Set(ctx, s.kv.AddressSelectionKey(sessionID), addressID, s.ttl)
}

func (s *SelectionStore) Clear(ctx context.Context, sessionID string) error {
	return s.kv.Del(ctx, s.kv.AddressSelectionKey(sessionID))
}
