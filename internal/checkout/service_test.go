package checkout

import (
	"context"
	"testing"

	"github.com/angelmondragon/restaurant-storefront/internal/delivery"
	"github.com/angelmondragon/restaurant-storefront/internal/orders"
	"github.com/angelmondragon/restaurant-storefront/internal/payments"
	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
	"github.com/angelmondragon/restaurant-storefront/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submitHarness struct {
	resolver *stubResolver
	orders   *stubOrders
	gateway  *stubGateway
	pending  *stubPending
	queue    *stubQueue
	emitter  *recordingEmitter
	registry *prometheus.Registry
	svc      Service
}

func newSubmitHarness(t *testing.T) *submitHarness {
	t.Helper()
	h := &submitHarness{
		resolver: freshResolver("25.50"),
		orders:   &stubOrders{order: &orders.Order{ID: "ord-1", OrderNumber: "1001"}},
		gateway:  &stubGateway{session: &payments.Session{PaymentID: "pay-1", RedirectURL: "https://pay.easykash.net/session/abc"}},
		pending:  &stubPending{},
		queue:    &stubQueue{},
		emitter:  &recordingEmitter{},
		registry: prometheus.NewRegistry(),
	}
	svc, err := NewService(ServiceParams{
		Delivery:      h.resolver,
		Orders:        h.orders,
		Payments:      h.gateway,
		Pending:       h.pending,
		Reconcile:     h.queue,
		Events:        h.emitter,
		Metrics:       metrics.NewCheckoutMetrics(h.registry),
		ReturnBaseURL: "https://shop.example.com/",
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

func submitInput() SubmitInput {
	return SubmitInput{
		SessionID: "sess-1",
		Token:     "backend-token",
		Customer:  &Customer{UserID: "u1", Name: "Mona", Email: "mona@example.com", Phone: "+201000000000"},
		Lang:      i18n.LangEN,
	}
}

func (h *submitHarness) counter(name, label string) float64 {
	families, _ := h.registry.Gather()
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if pair.GetValue() == label {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestSubmitCreatesOrderAndRedirects(t *testing.T) {
	h := newSubmitHarness(t)

	result, err := h.svc.Submit(context.Background(), submitInput())
	require.NoError(t, err)

	assert.Equal(t, "https://pay.easykash.net/session/abc", result.RedirectURL)
	assert.Equal(t, "ord-1", result.OrderID)
	assert.True(t, decimal.RequireFromString("165.50").Equal(result.Total))

	require.Len(t, h.orders.created, 1)
	payload := h.orders.created[0]
	assert.Equal(t, "addr-1", payload.AddressID)
	assert.Equal(t, 140.0, payload.Subtotal)
	assert.Equal(t, 25.5, payload.DeliveryFee)
	assert.Equal(t, 165.5, payload.Total)
	assert.Equal(t, 70.0, payload.Items[0].PricePerUnit)
	assert.Equal(t, "card", payload.PaymentMethod)

	require.Len(t, h.gateway.requests, 1)
	req := h.gateway.requests[0]
	assert.Equal(t, "ord-1", req.OrderID)
	assert.Equal(t, 165.5, req.Amount)
	assert.Equal(t, "+201000000000", req.CustomerPhone)
	assert.Equal(t, "https://shop.example.com/en/payment/result?id=ord-1", req.ReturnURL)

	assert.Equal(t, payments.Pending{PaymentID: "pay-1", OrderID: "ord-1"}, h.pending.saved["sess-1"])
	assert.Empty(t, h.orders.cancelled)
	assert.Equal(t, []enums.CheckoutEventType{
		enums.CheckoutEventOrderCreated,
		enums.CheckoutEventPaymentInitiated,
	}, h.emitter.types())
	assert.Equal(t, 1.0, h.counter("storefront_checkout_submissions_total", metrics.SubmissionRedirected))
}

func TestSubmitBlockedByGateMakesNoBackendCalls(t *testing.T) {
	h := newSubmitHarness(t)
	in := submitInput()
	in.Customer.Phone = ""

	_, err := h.svc.Submit(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, string(i18n.MsgPhoneRequired), pkgerrors.As(err).Key())
	assert.Empty(t, h.orders.created)
	assert.Empty(t, h.gateway.requests)
	assert.Equal(t, 1.0, h.counter("storefront_checkout_submissions_total", metrics.SubmissionBlocked))
}

func TestSubmitBlockedByStaleFee(t *testing.T) {
	h := newSubmitHarness(t)
	h.resolver.ensureFn = func(snap *delivery.Snapshot) *delivery.State {
		return &delivery.State{Fingerprint: "other-inputs", Result: &delivery.Result{Fee: decimal.NewFromInt(30)}}
	}

	_, err := h.svc.Submit(context.Background(), submitInput())
	require.Error(t, err)
	assert.Equal(t, string(i18n.MsgFeeStale), pkgerrors.As(err).Key())
	assert.Empty(t, h.orders.created)
}

func TestSubmitOrderCreateFailure(t *testing.T) {
	h := newSubmitHarness(t)
	h.orders.createErr = errBackendDown

	_, err := h.svc.Submit(context.Background(), submitInput())
	require.Error(t, err)
	assert.Equal(t, string(i18n.MsgOrderCreateFailed), pkgerrors.As(err).Key())
	assert.Empty(t, h.gateway.requests)
	assert.Empty(t, h.orders.cancelled)
}

func TestSubmitPaymentFailureCancelsOrder(t *testing.T) {
	h := newSubmitHarness(t)
	h.gateway.err = errBackendDown

	_, err := h.svc.Submit(context.Background(), submitInput())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	assert.Equal(t, string(i18n.MsgPaymentInitFailed), appErr.Key())
	assert.Equal(t, []string{"ord-1"}, h.orders.cancelled)
	assert.Empty(t, h.queue.entries)
	assert.Empty(t, h.pending.saved)
	assert.Equal(t, 0.0, h.counter("storefront_order_compensation_failures_total", metrics.StageSubmit))
}

func TestSubmitFailedCompensationIsQueued(t *testing.T) {
	h := newSubmitHarness(t)
	h.gateway.err = errBackendDown
	h.orders.cancelErr = errBackendDown

	_, err := h.svc.Submit(context.Background(), submitInput())
	require.Error(t, err)
	assert.Equal(t, string(i18n.MsgPaymentInitFailed), pkgerrors.As(err).Key())
	assert.Equal(t, []queued{{orderID: "ord-1", stage: metrics.StageSubmit}}, h.queue.entries)
	assert.Equal(t, 1.0, h.counter("storefront_order_compensation_failures_total", metrics.StageSubmit))
	assert.Contains(t, h.emitter.types(), enums.CheckoutEventCompensationFailed)
}

func TestSubmitSurvivesPendingSaveFailure(t *testing.T) {
	h := newSubmitHarness(t)
	h.pending.err = errBackendDown

	result, err := h.svc.Submit(context.Background(), submitInput())
	require.NoError(t, err)
	assert.Equal(t, "pay-1", result.PaymentID)
}

func TestSubmitDefaultsToArabicReturnPath(t *testing.T) {
	h := newSubmitHarness(t)
	in := submitInput()
	in.Lang = ""

	_, err := h.svc.Submit(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/ar/payment/result?id=ord-1", h.gateway.requests[0].ReturnURL)
}

func TestSummaryReportsBlocker(t *testing.T) {
	h := newSubmitHarness(t)

	summary, err := h.svc.Summary(context.Background(), "sess-1", "tok", submitInput().Customer)
	require.NoError(t, err)
	assert.True(t, summary.CanSubmit)
	assert.True(t, decimal.RequireFromString("165.5").Equal(summary.Total))

	h.resolver.addr = nil
	summary, err = h.svc.Summary(context.Background(), "sess-1", "tok", submitInput().Customer)
	require.NoError(t, err)
	assert.False(t, summary.CanSubmit)
	assert.Equal(t, i18n.MsgAddressRequired, summary.Blocker)
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{
		Delivery: &stubResolver{},
		Orders:   &stubOrders{},
		Payments: &stubGateway{},
		Pending:  &stubPending{},
	})
	assert.Error(t, err, "return url is required")
}
