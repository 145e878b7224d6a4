package checkout

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/angelmondragon/restaurant-storefront/internal/address"
	"github.com/angelmondragon/restaurant-storefront/internal/cart"
	"github.com/angelmondragon/restaurant-storefront/internal/delivery"
	"github.com/angelmondragon/restaurant-storefront/internal/events"
	"github.com/angelmondragon/restaurant-storefront/internal/orders"
	"github.com/angelmondragon/restaurant-storefront/internal/payments"
	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
	"github.com/angelmondragon/restaurant-storefront/pkg/metrics"
	"github.com/shopspring/decimal"
)

type feeResolver interface {
	Snapshot(ctx context.Context, sessionID, token string) (*delivery.Snapshot, error)
	Ensure(ctx context.Context, sessionID, token string, snap *delivery.Snapshot) (*delivery.State, error)
}

type orderClient interface {
	Create(ctx context.Context, token string, payload orders.Payload) (*orders.Order, error)
	Cancel(ctx context.Context, token, orderID string) error
}

type paymentInitiator interface {
	Initiate(ctx context.Context, token string, req payments.InitiateRequest) (*payments.Session, error)
}

type pendingSaver interface {
	Save(ctx context.Context, sessionID string, p payments.Pending) error
}

// SubmitInput is one "place order" request.
type SubmitInput struct {
	SessionID     string
	Token         string
	Customer      *Customer
	Lang          i18n.Lang
	Notes         string
	PaymentMethod enums.PaymentMethod
}

// Result tells the client where to send the shopper next.
type Result struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number,omitempty"`
	PaymentID   string          `json:"payment_id"`
	RedirectURL string          `json:"redirect_url"`
	Total       decimal.Decimal `json:"total"`
}

// Summary is the checkout page: what will be ordered and whether it can be.
type Summary struct {
	Address   *address.Address `json:"address,omitempty"`
	Cart      *cart.View       `json:"cart"`
	Delivery  *delivery.State  `json:"delivery,omitempty"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
	Fee       decimal.Decimal  `json:"delivery_fee"`
	Total     decimal.Decimal  `json:"total"`
	CanSubmit bool             `json:"can_submit"`
	Blocker   i18n.Key         `json:"blocker,omitempty"`
}

type Service interface {
	Summary(ctx context.Context, sessionID, token string, customer *Customer) (*Summary, error)
	Submit(ctx context.Context, in SubmitInput) (*Result, error)
}

type ServiceParams struct {
	Delivery      feeResolver
	Orders        orderClient
	Payments      paymentInitiator
	Pending       pendingSaver
	Reconcile     reconcileQueue
	Events        events.Emitter
	Metrics       *metrics.CheckoutMetrics
	Logger        *logger.Logger
	ReturnBaseURL string
}

type service struct {
	delivery      feeResolver
	orders        orderClient
	payments      paymentInitiator
	pending       pendingSaver
	compensator   *compensator
	events        events.Emitter
	metrics       *metrics.CheckoutMetrics
	logg          *logger.Logger
	returnBaseURL string
}

func NewService(params ServiceParams) (Service, error) {
	if params.Delivery == nil {
		return nil, fmt.Errorf("delivery resolver required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders client required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Pending == nil {
		return nil, fmt.Errorf("pending payment store required")
	}
	if strings.TrimSpace(params.ReturnBaseURL) == "" {
		return nil, fmt.Errorf("payment return base url required")
	}
	emitter := params.Events
	if emitter == nil {
		emitter = events.Nop{}
	}
	return &service{
		delivery:      params.Delivery,
		orders:        params.Orders,
		payments:      params.Payments,
		pending:       params.Pending,
		compensator:   newCompensator(params.Orders, params.Reconcile, emitter, params.Metrics, params.Logger),
		events:        emitter,
		metrics:       params.Metrics,
		logg:          params.Logger,
		returnBaseURL: strings.TrimRight(strings.TrimSpace(params.ReturnBaseURL), "/"),
	}, nil
}

func (s *service) Summary(ctx context.Context, sessionID, token string, customer *Customer) (*Summary, error) {
	gate, err := s.prepare(ctx, sessionID, token, customer)
	if err != nil {
		return nil, err
	}
	summary := &Summary{
		Address:  gate.Address,
		Cart:     cart.NewView(gate.Cart),
		Delivery: gate.Fee,
		Subtotal: cart.TotalPrice(gate.Cart),
		Fee:      feeOf(gate.Fee),
	}
	summary.Total = summary.Subtotal.Add(summary.Fee)
	summary.Blocker = gateKey(*gate)
	summary.CanSubmit = summary.Blocker == ""
	return summary, nil
}

// Submit creates the order and opens its payment session. If the payment
// cannot be opened the order is cancelled again.
func (s *service) Submit(ctx context.Context, in SubmitInput) (*Result, error) {
	if strings.TrimSpace(in.SessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if s.logg != nil {
		ctx = s.logg.WithSessionID(ctx, in.SessionID)
	}

	gate, err := s.prepare(ctx, in.SessionID, in.Token, in.Customer)
	if err != nil {
		return nil, err
	}
	if blocked := EvaluateGate(*gate); blocked != nil {
		s.metrics.IncSubmission(metrics.SubmissionBlocked)
		return nil, blocked
	}

	method := in.PaymentMethod
	if method == "" {
		method = enums.PaymentMethodCard
	}
	draft := orders.BuildPayload(orders.BuildInput{
		AddressID:     gate.Address.ID,
		Cart:          gate.Cart,
		DeliveryFee:   gate.Fee.Result.Fee,
		Notes:         in.Notes,
		PaymentMethod: method,
	})
	if len(draft.FallbackIDs) > 0 && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "line_ids", draft.FallbackIDs), "order.catalog_id_fallback")
	}

	order, err := s.orders.Create(ctx, in.Token, draft.Payload)
	if err != nil {
		s.metrics.IncSubmission(metrics.SubmissionOrderFailed)
		if s.logg != nil {
			s.logg.Error(ctx, "order.create_failed", err)
		}
		return nil, i18n.Wrap(pkgerrors.CodeDependency, err, i18n.MsgOrderCreateFailed)
	}
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, order.ID)
	}
	total := draft.Total.Round(2)
	s.emit(ctx, enums.CheckoutEventOrderCreated, in, order.ID, "", &total)

	session, err := s.payments.Initiate(ctx, in.Token, payments.InitiateRequest{
		OrderID:       order.ID,
		Amount:        total.InexactFloat64(),
		CustomerName:  in.Customer.Name,
		CustomerEmail: in.Customer.Email,
		CustomerPhone: in.Customer.Phone,
		ReturnURL:     s.returnURL(in.Lang, order.ID),
		PaymentMethod: method.String(),
	})
	if err != nil {
		s.metrics.IncSubmission(metrics.SubmissionPaymentFailed)
		if s.logg != nil {
			s.logg.Error(ctx, "payment.initiate_failed", err)
		}
		s.emit(ctx, enums.CheckoutEventPaymentInitFailed, in, order.ID, "", &total)
		s.compensator.cancel(ctx, in.Token, order.ID, metrics.StageSubmit)
		return nil, i18n.Wrap(pkgerrors.CodeDependency, err, i18n.MsgPaymentInitFailed)
	}

	if s.logg != nil {
		ctx = s.logg.WithPaymentID(ctx, session.PaymentID)
	}
	// The return URL carries the order id, so a lost pending pair only costs the fast path.
	if err := s.pending.Save(ctx, in.SessionID, payments.Pending{PaymentID: session.PaymentID, OrderID: order.ID}); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "payment.pending_save_failed")
	}

	s.metrics.IncSubmission(metrics.SubmissionRedirected)
	s.emit(ctx, enums.CheckoutEventPaymentInitiated, in, order.ID, session.PaymentID, &total)
	if s.logg != nil {
		s.logg.Info(ctx, "checkout.redirecting")
	}
	return &Result{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		PaymentID:   session.PaymentID,
		RedirectURL: session.RedirectURL,
		Total:       total,
	}, nil
}

func (s *service) prepare(ctx context.Context, sessionID, token string, customer *Customer) (*GateInput, error) {
	snap, err := s.delivery.Snapshot(ctx, sessionID, token)
	if err != nil {
		return nil, err
	}
	state, err := s.delivery.Ensure(ctx, sessionID, token, snap)
	if err != nil {
		return nil, err
	}
	return &GateInput{
		Customer:    customer,
		Address:     snap.Address,
		Cart:        snap.Cart,
		Fee:         state,
		Fingerprint: snap.Fingerprint,
	}, nil
}

func (s *service) returnURL(lang i18n.Lang, orderID string) string {
	if lang == "" {
		lang = i18n.LangAR
	}
	q := url.Values{}
	q.Set("id", orderID)
	return fmt.Sprintf("%s/%s/payment/result?%s", s.returnBaseURL, lang, q.Encode())
}

func (s *service) emit(ctx context.Context, eventType enums.CheckoutEventType, in SubmitInput, orderID, paymentID string, total *decimal.Decimal) {
	event := events.New(eventType)
	event.SessionID = in.SessionID
	if in.Customer != nil {
		event.UserID = in.Customer.UserID
	}
	event.OrderID = orderID
	event.PaymentID = paymentID
	if total != nil {
		amount := total.InexactFloat64()
		event.Amount = &amount
	}
	s.events.Emit(ctx, event)
}

func feeOf(state *delivery.State) decimal.Decimal {
	if state == nil || state.Result == nil {
		return decimal.Zero
	}
	return state.Result.Fee
}
