package payments

import (
	"context"
	"strings"
)

// Target is what the poller watches: a payment id, an order id, or both.
type Target struct {
	PaymentID string `json:"payment_id,omitempty"`
	OrderID   string `json:"order_id,omitempty"`
}

func (t Target) IsZero() bool {
	return strings.TrimSpace(t.PaymentID) == "" && strings.TrimSpace(t.OrderID) == ""
}

type pendingConsumer interface {
	Consume(ctx context.Context, sessionID string) (*Pending, error)
}

// ResolveTarget picks the first non-empty of explicit, query and the session's
// pending payment. The pending pair is only consumed when both others are empty.
func ResolveTarget(ctx context.Context, explicit, query Target, pending pendingConsumer, sessionID string) (Target, error) {
	if !explicit.IsZero() {
		return explicit, nil
	}
	if !query.IsZero() {
		return query, nil
	}
	if pending == nil {
		return Target{}, nil
	}
	p, err := pending.Consume(ctx, sessionID)
	if err != nil || p == nil {
		return Target{}, err
	}
	return Target{PaymentID: p.PaymentID, OrderID: p.OrderID}, nil
}
