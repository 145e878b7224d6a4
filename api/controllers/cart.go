package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/restaurant-storefront/api/responses"
	"github.com/angelmondragon/restaurant-storefront/api/validators"
	cartsvc "github.com/angelmondragon/restaurant-storefront/internal/cart"
	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
)

type addCartItemRequest struct {
	Type      string    `json:"type" validate:"required,oneof=product offer"`
	CatalogID uuid.UUID `json:"catalog_id" validate:"required"`
	Size      string    `json:"size,omitempty" validate:"omitempty,max=40"`
	Variants  []string  `json:"variants,omitempty" validate:"omitempty,max=20,dive,max=80"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=99"`
	Notes     string    `json:"notes,omitempty" validate:"omitempty,max=300"`
}

func (r addCartItemRequest) toInput() (cartsvc.AddItemInput, error) {
	itemType, err := enums.ParseItemType(r.Type)
	if err != nil {
		return cartsvc.AddItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item type")
	}
	return cartsvc.AddItemInput{
		Type:      itemType,
		CatalogID: r.CatalogID,
		Size:      r.Size,
		Variants:  r.Variants,
		Quantity:  r.Quantity,
		Notes:     validators.SanitizeString(r.Notes, 300),
	}, nil
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0,max=99"`
}

type selectBranchRequest struct {
	BranchID uuid.UUID `json:"branch_id" validate:"required"`
	Confirm  bool      `json:"confirm"`
}

// CartFetch returns the session cart.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), sid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartAddItem prices the selection from the menu and merges it into the cart.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.AddItem(r.Context(), sid, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// CartUpdateItem sets a line quantity; zero removes the line.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateQuantity(r.Context(), sid, chi.URLParam(r, "itemId"), payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.RemoveItem(r.Context(), sid, chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Clear(r.Context(), sid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartSelectBranch binds the cart to a branch. Switching away from a non-empty
// cart answers 409 until the client repeats the call with confirm=true.
func CartSelectBranch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload selectBranchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SelectBranch(r.Context(), sid, payload.BranchID, payload.Confirm)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
