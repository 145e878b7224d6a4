package checkout

import (
	"testing"

	"github.com/angelmondragon/restaurant-storefront/internal/cart"
	"github.com/angelmondragon/restaurant-storefront/internal/delivery"
	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
	"github.com/shopspring/decimal"
)

func passingGate() GateInput {
	snap := delivery.NewSnapshot(sampleAddress(), sampleCart())
	return GateInput{
		Customer:    &Customer{UserID: "u1", Name: "Mona", Phone: "+201000000000"},
		Address:     snap.Address,
		Cart:        snap.Cart,
		Fingerprint: snap.Fingerprint,
		Fee: &delivery.State{
			Fingerprint: snap.Fingerprint,
			Result:      &delivery.Result{Fee: decimal.NewFromInt(25)},
		},
	}
}

func TestEvaluateGate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*GateInput)
		want   i18n.Key
	}{
		{"passes", func(*GateInput) {}, ""},
		{"anonymous", func(in *GateInput) { in.Customer = nil }, i18n.MsgAuthRequired},
		{"no phone", func(in *GateInput) { in.Customer.Phone = "  " }, i18n.MsgPhoneRequired},
		{"no address", func(in *GateInput) { in.Address = nil }, i18n.MsgAddressRequired},
		{"empty cart", func(in *GateInput) { in.Cart = cart.Cart{} }, i18n.MsgCartEmpty},
		{"fee error", func(in *GateInput) {
			in.Fee = &delivery.State{Fingerprint: in.Fingerprint, ErrorKey: i18n.MsgOutOfRange}
		}, i18n.MsgOutOfRange},
		{"unknown fee error", func(in *GateInput) {
			in.Fee = &delivery.State{Fingerprint: in.Fingerprint, ErrorKey: "delivery.weird"}
		}, i18n.MsgDeliveryFeeFailed},
		{"no fee", func(in *GateInput) { in.Fee = nil }, i18n.MsgFeeUnavailable},
		{"fee without result", func(in *GateInput) { in.Fee.Result = nil }, i18n.MsgFeeUnavailable},
		{"stale fee", func(in *GateInput) { in.Fee.Fingerprint = "older" }, i18n.MsgFeeStale},
		{"phone checked before address", func(in *GateInput) {
			in.Customer.Phone = ""
			in.Address = nil
		}, i18n.MsgPhoneRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := passingGate()
			tc.mutate(&in)
			err := EvaluateGate(in)
			if tc.want == "" {
				if err != nil {
					t.Fatalf("expected gate to pass, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected %s", tc.want)
			}
			if err.Code() != pkgerrors.CodeCheckoutBlocked {
				t.Fatalf("unexpected code %s", err.Code())
			}
			if err.Key() != string(tc.want) {
				t.Fatalf("expected key %s, got %s", tc.want, err.Key())
			}
		})
	}
}
