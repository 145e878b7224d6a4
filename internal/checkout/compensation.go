package checkout

import (
	"context"

	"github.com/angelmondragon/restaurant-storefront/internal/events"
	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
	"github.com/angelmondragon/restaurant-storefront/pkg/metrics"
)

type orderCanceller interface {
	Cancel(ctx context.Context, token, orderID string) error
}

type reconcileQueue interface {
	Enqueue(ctx context.Context, orderID, stage string) error
}

// compensator cancels orders whose payment will never complete. A cancel that
// fails is handed to the reconcile worker.
type compensator struct {
	orders  orderCanceller
	queue   reconcileQueue
	events  events.Emitter
	metrics *metrics.CheckoutMetrics
	logg    *logger.Logger
}

func newCompensator(orders orderCanceller, queue reconcileQueue, emitter events.Emitter, m *metrics.CheckoutMetrics, logg *logger.Logger) *compensator {
	if emitter == nil {
		emitter = events.Nop{}
	}
	return &compensator{orders: orders, queue: queue, events: emitter, metrics: m, logg: logg}
}

// cancel reports whether the order was cancelled right away.
func (c *compensator) cancel(ctx context.Context, token, orderID, stage string) bool {
	ctx = context.WithoutCancel(ctx)
	err := c.orders.Cancel(ctx, token, orderID)
	if err == nil {
		if c.logg != nil {
			c.logg.Info(c.logg.WithField(ctx, "stage", stage), "order.compensated")
		}
		return true
	}

	c.metrics.IncCompensationFailure(stage)
	if c.logg != nil {
		c.logg.Error(c.logg.WithFields(ctx, map[string]any{
			"stage":    stage,
			"order_id": orderID,
		}), "order.compensation_failed", err)
	}

	event := events.New(enums.CheckoutEventCompensationFailed)
	event.OrderID = orderID
	event.Stage = stage
	event.Attrs = map[string]any{"error": err.Error()}
	c.events.Emit(ctx, event)

	if c.queue == nil {
		return false
	}
	if qErr := c.queue.Enqueue(ctx, orderID, stage); qErr != nil && c.logg != nil {
		c.logg.Error(c.logg.WithField(ctx, "order_id", orderID), "order.reconcile_enqueue_failed", qErr)
	}
	return false
}
