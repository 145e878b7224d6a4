package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/restaurant-storefront/api/responses"
	"github.com/angelmondragon/restaurant-storefront/internal/delivery"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
)

type deliveryResponse struct {
	*delivery.State
	ErrorMessage string `json:"error_message,omitempty"`
}

func newDeliveryResponse(ctx context.Context, state *delivery.State) *deliveryResponse {
	if state == nil {
		return nil
	}
	return &deliveryResponse{State: state, ErrorMessage: localized(ctx, state.ErrorKey)}
}

// DeliveryFee returns the session's delivery fee, recomputing it only when its inputs changed.
func DeliveryFee(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
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

		snap, err := svc.Snapshot(r.Context(), sid, p.BackendToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.Ensure(r.Context(), sid, p.BackendToken, snap)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newDeliveryResponse(r.Context(), state))
	}
}

// DeliveryResolve forces a fresh fee calculation.
func DeliveryResolve(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
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

		state, err := svc.Resolve(r.Context(), sid, p.BackendToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newDeliveryResponse(r.Context(), state))
	}
}
