package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/restaurant-storefront/api/responses"
	"github.com/angelmondragon/restaurant-storefront/api/validators"
	"github.com/angelmondragon/restaurant-storefront/internal/payments"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
)

type paymentTracker interface {
	Start(ctx context.Context, sessionID, token string, explicit, query payments.Target) (payments.Snapshot, error)
	Cancel(ctx context.Context, sessionID, token string) (payments.Snapshot, error)
}

type trackPaymentRequest struct {
	PaymentID string `json:"payment_id,omitempty" validate:"omitempty,max=128"`
	OrderID   string `json:"order_id,omitempty" validate:"omitempty,max=128"`
}

type paymentResponse struct {
	payments.Snapshot
	ErrorMessage string `json:"error_message,omitempty"`
}

func newPaymentResponse(ctx context.Context, snap payments.Snapshot) paymentResponse {
	return paymentResponse{Snapshot: snap, ErrorMessage: localized(ctx, snap.ErrorKey)}
}

// queryTarget reads the ids a payment return page carries. A bare "id" is the order id.
func queryTarget(r *http.Request) payments.Target {
	q := r.URL.Query()
	target := payments.Target{
		PaymentID: strings.TrimSpace(q.Get("payment_id")),
		OrderID:   strings.TrimSpace(q.Get("order_id")),
	}
	if target.OrderID == "" {
		target.OrderID = strings.TrimSpace(q.Get("id"))
	}
	return target
}

// PaymentTrack starts following the payment named in the body, or the session's pending one.
func PaymentTrack(tracker paymentTracker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sid, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body trackPaymentRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		explicit := payments.Target{
			PaymentID: strings.TrimSpace(body.PaymentID),
			OrderID:   strings.TrimSpace(body.OrderID),
		}

		snap, err := tracker.Start(r.Context(), sid, p.BackendToken, explicit, queryTarget(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPaymentResponse(r.Context(), snap))
	}
}

// PaymentStatus is polled by the return page; it attaches to a running poller or starts one.
func PaymentStatus(tracker paymentTracker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sid, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := tracker.Start(r.Context(), sid, p.BackendToken, payments.Target{}, queryTarget(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPaymentResponse(r.Context(), snap))
	}
}

func PaymentCancel(tracker paymentTracker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sid, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := tracker.Cancel(r.Context(), sid, p.BackendToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPaymentResponse(r.Context(), snap))
	}
}
