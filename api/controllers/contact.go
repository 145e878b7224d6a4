package controllers

import (
	"net/http"

	"github.com/angelmondragon/restaurant-storefront/api/responses"
	"github.com/angelmondragon/restaurant-storefront/api/validators"
	"github.com/angelmondragon/restaurant-storefront/internal/contact"
	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
)

// ContactWhatsApp returns the support chat link; ?order= prefills the order reference.
func ContactWhatsApp(wa *contact.WhatsApp, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if wa == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "contact channel not configured"))
			return
		}
		order := validators.SanitizeString(r.URL.Query().Get("order"), 64)
		responses.WriteSuccess(w, wa.Link(i18n.FromContext(r.Context()), order))
	}
}
