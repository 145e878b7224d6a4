package cron

import (
	"context"
	"fmt"
	"net/http"

	"github.com/angelmondragon/restaurant-storefront/internal/events"
	"github.com/angelmondragon/restaurant-storefront/internal/reconcile"
	"github.com/angelmondragon/restaurant-storefront/pkg/backend"
	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
	"github.com/angelmondragon/restaurant-storefront/pkg/metrics"
	"go.uber.org/multierr"
)

const (
	defaultReconcileBatch       = 50
	defaultReconcileMaxAttempts = 10
)

type reconcileQueue interface {
	Pop(ctx context.Context) (*reconcile.Entry, error)
	Requeue(ctx context.Context, entry reconcile.Entry) error
	Len(ctx context.Context) (int64, error)
}

type orderCanceller interface {
	Cancel(ctx context.Context, token, orderID string) error
}

// OrderReconcileJobParams configure the job that retries failed order cancellations.
type OrderReconcileJobParams struct {
	Logger      *logger.Logger
	Queue       reconcileQueue
	Orders      orderCanceller
	Events      events.Emitter
	Metrics     *metrics.CheckoutMetrics
	Token       string
	BatchSize   int
	MaxAttempts int
}

type orderReconcileJob struct {
	logg        *logger.Logger
	queue       reconcileQueue
	orders      orderCanceller
	events      events.Emitter
	metrics     *metrics.CheckoutMetrics
	token       string
	batchSize   int
	maxAttempts int
}

func NewOrderReconcileJob(params OrderReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Queue == nil {
		return nil, fmt.Errorf("reconcile queue required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders client required")
	}
	if params.Token == "" {
		return nil, fmt.Errorf("backend service token required")
	}
	emitter := params.Events
	if emitter == nil {
		emitter = events.Nop{}
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultReconcileBatch
	}
	attempts := params.MaxAttempts
	if attempts <= 0 {
		attempts = defaultReconcileMaxAttempts
	}
	return &orderReconcileJob{
		logg:        params.Logger,
		queue:       params.Queue,
		orders:      params.Orders,
		events:      emitter,
		metrics:     params.Metrics,
		token:       params.Token,
		batchSize:   batch,
		maxAttempts: attempts,
	}, nil
}

func (j *orderReconcileJob) Name() string { return "order-reconcile" }

// Run drains up to one batch. Entries that fail again go back to the tail until
// they run out of attempts, at which point the order is reported as orphaned.
func (j *orderReconcileJob) Run(ctx context.Context) error {
	var errs error
	processed := 0
	for processed < j.batchSize {
		if ctx.Err() != nil {
			break
		}
		entry, err := j.queue.Pop(ctx)
		if err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		if entry == nil {
			break
		}
		processed++
		errs = multierr.Append(errs, j.process(ctx, *entry))
	}
	if processed > 0 {
		j.logg.Info(j.logg.WithField(ctx, "count", processed), "order reconcile batch complete")
	}
	j.reportBacklog(ctx)
	return errs
}

func (j *orderReconcileJob) reportBacklog(ctx context.Context) {
	backlog, err := j.queue.Len(ctx)
	if err != nil {
		j.logg.Warn(j.logg.WithField(ctx, "error", err.Error()), "order reconcile backlog unavailable")
		return
	}
	j.metrics.SetReconcileBacklog(backlog)
	if backlog > 0 {
		j.logg.Info(j.logg.WithField(ctx, "backlog", backlog), "order reconcile backlog remaining")
	}
}

func (j *orderReconcileJob) process(ctx context.Context, entry reconcile.Entry) error {
	ctx = j.logg.WithOrderID(ctx, entry.OrderID)
	ctx = j.logg.WithFields(ctx, map[string]any{"stage": entry.Stage, "attempts": entry.Attempts + 1})

	err := j.orders.Cancel(ctx, j.token, entry.OrderID)
	if err == nil {
		j.metrics.IncReconciled()
		j.logg.Info(ctx, "order.cancel_reconciled")
		j.emit(ctx, enums.CheckoutEventOrderCancelReconciled, entry)
		return nil
	}
	if notCancellable(err) {
		j.logg.Warn(j.logg.WithField(ctx, "error", err.Error()), "order.reconcile_dropped")
		return nil
	}

	entry.Attempts++
	entry.LastError = err.Error()
	if entry.Attempts >= j.maxAttempts {
		j.metrics.IncOrphaned()
		j.logg.Error(ctx, "order.orphaned", err)
		j.emit(ctx, enums.CheckoutEventOrderOrphaned, entry)
		return nil
	}
	if qErr := j.queue.Requeue(ctx, entry); qErr != nil {
		j.logg.Error(ctx, "order.reconcile_requeue_failed", qErr)
		return qErr
	}
	return nil
}

// notCancellable reports backend answers that no retry can change.
func notCancellable(err error) bool {
	switch backend.StatusOf(err) {
	case http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

func (j *orderReconcileJob) emit(ctx context.Context, eventType enums.CheckoutEventType, entry reconcile.Entry) {
	event := events.New(eventType)
	event.OrderID = entry.OrderID
	event.Stage = entry.Stage
	event.Attrs = map[string]any{"attempts": entry.Attempts}
	j.events.Emit(ctx, event)
}
