package checkout

import (
	"context"
	"fmt"

	"github.com/angelmondragon/restaurant-storefront/internal/cart"
	"github.com/angelmondragon/restaurant-storefront/internal/events"
	"github.com/angelmondragon/restaurant-storefront/internal/payments"
	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
	"github.com/angelmondragon/restaurant-storefront/pkg/metrics"
)

type cartClearer interface {
	Clear(ctx context.Context, sessionID string) (*cart.View, error)
}

// TerminalEffects applies what a settled payment means for the session:
// a completed payment empties the cart, a failed or cancelled one cancels the order.
type TerminalEffects struct {
	carts       cartClearer
	compensator *compensator
	events      events.Emitter
	metrics     *metrics.CheckoutMetrics
	logg        *logger.Logger
}

func NewTerminalEffects(carts cartClearer, orders orderCanceller, queue reconcileQueue, emitter events.Emitter, m *metrics.CheckoutMetrics, logg *logger.Logger) (*TerminalEffects, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if orders == nil {
		return nil, fmt.Errorf("orders client required")
	}
	if emitter == nil {
		emitter = events.Nop{}
	}
	return &TerminalEffects{
		carts:       carts,
		compensator: newCompensator(orders, queue, emitter, m, logg),
		events:      emitter,
		metrics:     m,
		logg:        logg,
	}, nil
}

var _ payments.TerminalHandler = (*TerminalEffects)(nil)

func (t *TerminalEffects) HandleTerminal(ctx context.Context, sessionID, token string, target payments.Target, payment payments.Payment) {
	t.metrics.IncPaymentTerminal(payment.Status.String())
	if t.logg != nil {
		ctx = t.logg.WithField(ctx, "status", payment.Status.String())
		t.logg.Info(ctx, "payment.terminal")
	}

	event := events.New(enums.CheckoutEventPaymentTerminal)
	event.SessionID = sessionID
	event.OrderID = target.OrderID
	event.PaymentID = target.PaymentID
	event.Status = payment.Status.String()
	if !payment.Amount.IsZero() {
		amount := payment.Amount.InexactFloat64()
		event.Amount = &amount
	}
	t.events.Emit(ctx, event)

	switch payment.Status {
	case enums.PaymentStatusCompleted:
		if _, err := t.carts.Clear(ctx, sessionID); err != nil && t.logg != nil {
			t.logg.Error(ctx, "cart.clear_after_payment_failed", err)
		}
	case enums.PaymentStatusFailed, enums.PaymentStatusCancelled:
		orderID := target.OrderID
		if orderID == "" {
			orderID = payment.OrderID
		}
		if orderID == "" {
			if t.logg != nil {
				t.logg.Warn(ctx, "payment.terminal_without_order")
			}
			return
		}
		t.compensator.cancel(ctx, token, orderID, metrics.StagePaymentPoll)
	}
}
