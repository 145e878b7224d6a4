package controllers

import (
	"net/http"

	"github.com/angelmondragon/restaurant-storefront/api/responses"
	"github.com/angelmondragon/restaurant-storefront/api/validators"
	"github.com/angelmondragon/restaurant-storefront/internal/checkout"
	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
)

type submitCheckoutRequest struct {
	Notes         string `json:"notes,omitempty" validate:"omitempty,max=500"`
	PaymentMethod string `json:"payment_method,omitempty" validate:"omitempty,max=32"`
}

type checkoutSummaryResponse struct {
	*checkout.Summary
	Delivery       *deliveryResponse `json:"delivery,omitempty"`
	BlockerMessage string            `json:"blocker_message,omitempty"`
}

func CheckoutSummary(svc checkout.Service, profiles profileReader, logg *logger.Logger) http.HandlerFunc {
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
		cust, err := customer(r.Context(), profiles, p)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), sid, p.BackendToken, cust)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, checkoutSummaryResponse{
			Summary:        summary,
			Delivery:       newDeliveryResponse(r.Context(), summary.Delivery),
			BlockerMessage: localized(r.Context(), summary.Blocker),
		})
	}
}

// CheckoutSubmit places the order and returns the EasyKash redirect.
func CheckoutSubmit(svc checkout.Service, profiles profileReader, logg *logger.Logger) http.HandlerFunc {
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

		var body submitCheckoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method := enums.PaymentMethodCard
		if body.PaymentMethod != "" {
			method, err = enums.ParsePaymentMethod(body.PaymentMethod)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
				return
			}
		}

		cust, err := customer(r.Context(), profiles, p)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithUserID(r.Context(), p.UserID.String())
		result, err := svc.Submit(ctx, checkout.SubmitInput{
			SessionID:     sid,
			Token:         p.BackendToken,
			Customer:      cust,
			Lang:          i18n.FromContext(ctx),
			Notes:         validators.SanitizeString(body.Notes, 500),
			PaymentMethod: method,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
