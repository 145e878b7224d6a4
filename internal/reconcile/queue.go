package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry is an order whose compensating cancel has not gone through yet.
type Entry struct {
	OrderID    string    `json:"order_id"`
	Stage      string    `json:"stage"`
	Attempts   int       `json:"attempts"`
	LastError  string    `json:"last_error,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

type listKV interface {
	RPush(ctx context.Context, key string, values ...any) error
	LPop(ctx context.Context, key string) (string, error)
	LLen(ctx context.Context, key string) (int64, error)
	ReconcileQueueKey() string
}

// Queue is a FIFO of orders awaiting cancellation, kept in a Redis list.
type Queue struct {
	kv  listKV
	now func() time.Time
}

func NewQueue(kv listKV) (*Queue, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis store required")
	}
	return &Queue{kv: kv, now: time.Now}, nil
}

// Enqueue records a fresh failure for orderID raised at stage.
func (q *Queue) Enqueue(ctx context.Context, orderID, stage string) error {
	if strings.TrimSpace(orderID) == "" {
		return fmt.Errorf("order id is required")
	}
	return q.push(ctx, Entry{OrderID: orderID, Stage: stage, EnqueuedAt: q.now().UTC()})
}

// Requeue puts entry back at the tail after a failed attempt.
func (q *Queue) Requeue(ctx context.Context, entry Entry) error {
	return q.push(ctx, entry)
}

// Pop returns the head entry, or nil when the queue is empty.
func (q *Queue) Pop(ctx context.Context) (*Entry, error) {
	raw, err := q.kv.LPop(ctx, q.kv.ReconcileQueueKey())
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop reconcile entry: %w", err)
	}
	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("decode reconcile entry %q: %w", raw, err)
	}
	return &entry, nil
}

func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.kv.LLen(ctx, q.kv.ReconcileQueueKey())
}

func (q *Queue) push(ctx context.Context, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode reconcile entry: %w", err)
	}
	if err := q.kv.RPush(ctx, q.kv.ReconcileQueueKey(), string(raw)); err != nil {
		return fmt.Errorf("push reconcile entry: %w", err)
	}
	return nil
}
