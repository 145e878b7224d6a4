package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pending is the payment/order pair remembered between initiation and the gateway return.
type Pending struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
}

type pendingKV interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	GetDel(ctx context.Context, key string) (string, error)
	PendingPaymentKey(sessionID string) string
}

// PendingStore keeps at most one pending payment per session. Reads consume it.
type PendingStore struct {
	kv  pendingKV
	ttl time.Duration
}

func NewPendingStore(kv pendingKV, ttl time.Duration) (*PendingStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis store required")
	}
	return &PendingStore{kv: kv, ttl: ttl}, nil
}

func (s *PendingStore) Save(ctx context.Context, sessionID string, p Pending) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode pending payment: %w", err)
	}
	return s.kv.Set(ctx, s.kv.PendingPaymentKey(sessionID), string(raw), s.ttl)
}

// Consume returns and clears the pending pair, or nil when there is none.
func (s *PendingStore) Consume(ctx context.Context, sessionID string) (*Pending, error) {
	raw, err := s.kv.GetDel(ctx, s.kv.PendingPaymentKey(sessionID))
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consume pending payment: %w", err)
	}
	var p Pending
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode pending payment: %w", err)
	}
	return &p, nil
}
