package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/angelmondragon/restaurant-storefront/internal/address"
	"github.com/angelmondragon/restaurant-storefront/internal/cart"
	"github.com/angelmondragon/restaurant-storefront/internal/delivery"
	"github.com/angelmondragon/restaurant-storefront/internal/events"
	"github.com/angelmondragon/restaurant-storefront/internal/orders"
	"github.com/angelmondragon/restaurant-storefront/internal/payments"
	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var errBackendDown = errors.New("backend unavailable")

func floatPtr(v float64) *float64 { return &v }

func sampleAddress() *address.Address {
	return &address.Address{ID: "addr-1", Street: "Tahrir St", City: "Cairo", Latitude: floatPtr(30.04), Longitude: floatPtr(31.23)}
}

func sampleCart() cart.Cart {
	branch := uuid.MustParse("6f1c2a7e-93b1-4c8e-9a55-0d6f3f1b2c11")
	burger := uuid.MustParse("1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed")
	return cart.Cart{
		BranchID: &branch,
		Items: []cart.Item{{
			ID:         burger.String() + "-1767225600000",
			CatalogID:  burger,
			Type:       enums.ItemTypeProduct,
			TitleAR:    "برجر",
			TitleEN:    "Burger",
			Quantity:   2,
			TotalPrice: decimal.RequireFromString("140"),
			BranchID:   branch,
		}},
	}
}

type stubResolver struct {
	addr     *address.Address
	cart     cart.Cart
	state    *delivery.State
	err      error
	ensureFn func(snap *delivery.Snapshot) *delivery.State
}

// freshResolver returns a resolver whose stored fee matches the current inputs.
func freshResolver(fee string) *stubResolver {
	r := &stubResolver{addr: sampleAddress(), cart: sampleCart()}
	r.ensureFn = func(snap *delivery.Snapshot) *delivery.State {
		return &delivery.State{
			Fingerprint: snap.Fingerprint,
			AddressID:   snap.Inputs.AddressID,
			Result:      &delivery.Result{Fee: decimal.RequireFromString(fee), DistanceKM: 3.2},
		}
	}
	return r
}

func (r *stubResolver) Snapshot(context.Context, string, string) (*delivery.Snapshot, error) {
	if r.err != nil {
		return nil, r.err
	}
	return delivery.NewSnapshot(r.addr, r.cart), nil
}

func (r *stubResolver) Ensure(_ context.Context, _, _ string, snap *delivery.Snapshot) (*delivery.State, error) {
	if r.ensureFn != nil {
		return r.ensureFn(snap), nil
	}
	return r.state, nil
}

type stubOrders struct {
	mu        sync.Mutex
	order     *orders.Order
	createErr error
	cancelErr error
	created   []orders.Payload
	cancelled []string
}

func (o *stubOrders) Create(_ context.Context, _ string, payload orders.Payload) (*orders.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.created = append(o.created, payload)
	if o.createErr != nil {
		return nil, o.createErr
	}
	return o.order, nil
}

func (o *stubOrders) Cancel(_ context.Context, _, orderID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancelled = append(o.cancelled, orderID)
	return o.cancelErr
}

type stubGateway struct {
	session  *payments.Session
	err      error
	requests []payments.InitiateRequest
}

func (g *stubGateway) Initiate(_ context.Context, _ string, req payments.InitiateRequest) (*payments.Session, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return g.session, nil
}

type stubPending struct {
	saved map[string]payments.Pending
	err   error
}

func (p *stubPending) Save(_ context.Context, sessionID string, pending payments.Pending) error {
	if p.err != nil {
		return p.err
	}
	if p.saved == nil {
		p.saved = map[string]payments.Pending{}
	}
	p.saved[sessionID] = pending
	return nil
}

type queued struct {
	orderID string
	stage   string
}

type stubQueue struct {
	entries []queued
}

func (q *stubQueue) Enqueue(_ context.Context, orderID, stage string) error {
	q.entries = append(q.entries, queued{orderID: orderID, stage: stage})
	return nil
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []events.Event
}

func (e *recordingEmitter) Emit(_ context.Context, event events.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *recordingEmitter) types() []enums.CheckoutEventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]enums.CheckoutEventType, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.Type)
	}
	return out
}

type stubCarts struct {
	cleared []string
}

func (c *stubCarts) Clear(_ context.Context, sessionID string) (*cart.View, error) {
	c.cleared = append(c.cleared, sessionID)
	return cart.NewView(cart.Cart{}), nil
}
