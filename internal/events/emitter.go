package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaximumBackoff = 2 * time.Second
	emitTimeout           = 10 * time.Second
)

// Emitter records checkout milestones. Implementations never fail the caller.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// Nop drops every event. Used when GCP is not configured.
type Nop struct{}

func (Nop) Emit(context.Context, Event) {}

type topicPublisher interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
}

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

type Config struct {
	Topic string
	Table string
	Retry RetryPolicy
}

// GCPEmitter publishes each event to Pub/Sub and streams it into BigQuery.
// Either sink may be nil.
type GCPEmitter struct {
	publisher topicPublisher
	inserter  tableInserter
	topic     string
	table     string
	retry     RetryPolicy
	logg      *logger.Logger
}

func NewGCPEmitter(publisher topicPublisher, inserter tableInserter, cfg Config, logg *logger.Logger) (*GCPEmitter, error) {
	if publisher == nil && inserter == nil {
		return nil, errors.New("pubsub publisher or bigquery inserter required")
	}
	if publisher != nil && strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("checkout topic is required")
	}
	if inserter != nil && strings.TrimSpace(cfg.Table) == "" {
		return nil, errors.New("checkout events table is required")
	}
	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = defaultMaxAttempts
	}
	if retry.InitialBackoff <= 0 {
		retry.InitialBackoff = defaultInitialBackoff
	}
	if retry.MaximumBackoff < retry.InitialBackoff {
		retry.MaximumBackoff = max(defaultMaximumBackoff, retry.InitialBackoff)
	}
	return &GCPEmitter{
		publisher: publisher,
		inserter:  inserter,
		topic:     strings.TrimSpace(cfg.Topic),
		table:     strings.TrimSpace(cfg.Table),
		retry:     retry,
		logg:      logg,
	}, nil
}

// Emit delivers the event to every configured sink. Failures are logged only.
func (e *GCPEmitter) Emit(ctx context.Context, event Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emitTimeout)
	defer cancel()

	if err := e.publish(ctx, event); err != nil {
		e.warn(ctx, event, "events.publish_failed", err)
	}
	if err := e.insert(ctx, event); err != nil {
		e.warn(ctx, event, "events.insert_failed", err)
	}
}

func (e *GCPEmitter) publish(ctx context.Context, event Event) error {
	if e.publisher == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	attrs := map[string]string{"event_type": event.Type.String()}
	if event.OrderID != "" {
		attrs["order_id"] = event.OrderID
	}
	_, err = e.publisher.Publish(ctx, e.topic, data, attrs)
	return err
}

func (e *GCPEmitter) insert(ctx context.Context, event Event) error {
	if e.inserter == nil {
		return nil
	}
	row, err := event.Row()
	if err != nil {
		return err
	}
	return e.insertWithRetry(ctx, []any{&row})
}

func (e *GCPEmitter) insertWithRetry(ctx context.Context, rows []any) error {
	attempts := 0
	backoff := e.retry.InitialBackoff
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := e.inserter.InsertRows(ctx, e.table, rows)
		if err == nil {
			return nil
		}
		attempts++
		if attempts >= e.retry.MaxAttempts || !isRetryable(err) {
			return fmt.Errorf("insert %s rows: %w", e.table, err)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff = min(backoff*2, e.retry.MaximumBackoff)
	}
}

func (e *GCPEmitter) warn(ctx context.Context, event Event, msg string, err error) {
	if e.logg == nil {
		return
	}
	ctx = e.logg.WithFields(ctx, map[string]any{
		"event_type": event.Type.String(),
		"event_id":   event.ID,
		"error":      err.Error(),
	})
	e.logg.Warn(ctx, msg)
}
