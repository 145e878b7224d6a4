package checkout

import (
	"strings"

	"github.com/angelmondragon/restaurant-storefront/internal/address"
	"github.com/angelmondragon/restaurant-storefront/internal/cart"
	"github.com/angelmondragon/restaurant-storefront/internal/delivery"
	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
)

// Customer is the signed-in shopper placing the order.
type Customer struct {
	UserID string
	Name   string
	Email  string
	Phone  string
}

func (c *Customer) hasPhone() bool {
	return c != nil && strings.TrimSpace(c.Phone) != ""
}

// GateInput is everything the submit gate looks at.
type GateInput struct {
	Customer    *Customer
	Address     *address.Address
	Cart        cart.Cart
	Fee         *delivery.State
	Fingerprint string
}

// EvaluateGate returns the first reason the order cannot be placed, or nil.
func EvaluateGate(in GateInput) *pkgerrors.Error {
	if key := gateKey(in); key != "" {
		return i18n.Error(pkgerrors.CodeCheckoutBlocked, key)
	}
	return nil
}

func gateKey(in GateInput) i18n.Key {
	switch {
	case in.Customer == nil:
		return i18n.MsgAuthRequired
	case !in.Customer.hasPhone():
		return i18n.MsgPhoneRequired
	case in.Address == nil:
		return i18n.MsgAddressRequired
	case in.Cart.IsEmpty():
		return i18n.MsgCartEmpty
	case in.Fee.HasError():
		if i18n.Known(in.Fee.ErrorKey) {
			return in.Fee.ErrorKey
		}
		return i18n.MsgDeliveryFeeFailed
	case in.Fee == nil || in.Fee.Result == nil:
		return i18n.MsgFeeUnavailable
	case !in.Fee.FreshFor(in.Fingerprint):
		return i18n.MsgFeeStale
	}
	return ""
}
