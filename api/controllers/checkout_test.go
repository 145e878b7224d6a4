package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/restaurant-storefront/internal/auth"
	cartsvc "github.com/angelmondragon/restaurant-storefront/internal/cart"
	"github.com/angelmondragon/restaurant-storefront/internal/checkout"
	"github.com/angelmondragon/restaurant-storefront/internal/delivery"
	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
)

type stubCheckoutService struct {
	summary  *checkout.Summary
	result   *checkout.Result
	err      error
	customer *checkout.Customer
	token    string
	input    checkout.SubmitInput
	submits  int
}

func (s *stubCheckoutService) Summary(ctx context.Context, sessionID, token string, customer *checkout.Customer) (*checkout.Summary, error) {
	s.customer, s.token = customer, token
	return s.summary, s.err
}

func (s *stubCheckoutService) Submit(ctx context.Context, in checkout.SubmitInput) (*checkout.Result, error) {
	s.submits++
	s.input = in
	return s.result, s.err
}

type stubProfiles struct {
	user *auth.User
	err  error
}

func (s stubProfiles) Me(ctx context.Context, accessID string) (*auth.User, error) {
	return s.user, s.err
}

func testUser() *auth.User {
	p := testPrincipal()
	return &auth.User{ID: p.UserID, Email: p.Email, FullName: "Mona Adel", Phone: "+201000000000"}
}

func TestCheckoutSummaryLocalizesBlocker(t *testing.T) {
	svc := &stubCheckoutService{summary: &checkout.Summary{
		Cart:     &cartsvc.View{Items: []cartsvc.Item{}},
		Delivery: &delivery.State{Generation: 3, ErrorKey: i18n.MsgOutOfRange},
		Subtotal: decimal.NewFromInt(90),
		Total:    decimal.NewFromInt(90),
		Blocker:  i18n.MsgFeeUnavailable,
	}}
	req := shopperRequest(t, http.MethodGet, "/api/v1/checkout/summary", nil, testPrincipal(), nil)
	rec := httptest.NewRecorder()

	CheckoutSummary(svc, stubProfiles{user: testUser()}, testLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.token != "backend-token" {
		t.Fatalf("expected backend token forwarded got %q", svc.token)
	}
	if svc.customer == nil || svc.customer.Phone != "+201000000000" || svc.customer.Name != "Mona Adel" {
		t.Fatalf("unexpected customer: %+v", svc.customer)
	}

	var out struct {
		CanSubmit      bool   `json:"can_submit"`
		Blocker        string `json:"blocker"`
		BlockerMessage string `json:"blocker_message"`
		Delivery       struct {
			Generation   int64  `json:"generation"`
			ErrorMessage string `json:"error_message"`
		} `json:"delivery"`
	}
	decodeData(t, rec, &out)
	if out.Blocker != string(i18n.MsgFeeUnavailable) {
		t.Fatalf("unexpected blocker %q", out.Blocker)
	}
	if out.BlockerMessage != i18n.Message(i18n.LangEN, i18n.MsgFeeUnavailable) {
		t.Fatalf("unexpected blocker message %q", out.BlockerMessage)
	}
	if out.Delivery.Generation != 3 || out.Delivery.ErrorMessage != i18n.Message(i18n.LangEN, i18n.MsgOutOfRange) {
		t.Fatalf("unexpected delivery: %+v", out.Delivery)
	}
}

func TestCheckoutSummaryRequiresPrincipal(t *testing.T) {
	svc := &stubCheckoutService{}
	req := shopperRequest(t, http.MethodGet, "/api/v1/checkout/summary", nil, nil, nil)
	rec := httptest.NewRecorder()

	CheckoutSummary(svc, stubProfiles{user: testUser()}, testLogger())(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestCheckoutSubmitDefaultsToCard(t *testing.T) {
	svc := &stubCheckoutService{result: &checkout.Result{
		OrderID:     "order-1",
		PaymentID:   "pay-1",
		RedirectURL: "https://pay.example.com/pay-1",
		Total:       decimal.NewFromInt(115),
	}}
	req := shopperRequest(t, http.MethodPost, "/api/v1/checkout/submit", map[string]any{"notes": " ring twice "}, testPrincipal(), nil)
	rec := httptest.NewRecorder()

	CheckoutSubmit(svc, stubProfiles{user: testUser()}, testLogger())(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.input.PaymentMethod != enums.PaymentMethodCard {
		t.Fatalf("expected card got %s", svc.input.PaymentMethod)
	}
	if svc.input.Lang != i18n.LangEN || svc.input.SessionID != testSessionID || svc.input.Notes != "ring twice" {
		t.Fatalf("unexpected input: %+v", svc.input)
	}
	var out checkout.Result
	decodeData(t, rec, &out)
	if out.RedirectURL != "https://pay.example.com/pay-1" {
		t.Fatalf("unexpected redirect %q", out.RedirectURL)
	}
}

func TestCheckoutSubmitRejectsUnknownMethod(t *testing.T) {
	svc := &stubCheckoutService{}
	req := shopperRequest(t, http.MethodPost, "/api/v1/checkout/submit", map[string]any{"payment_method": "cash"}, testPrincipal(), nil)
	rec := httptest.NewRecorder()

	CheckoutSubmit(svc, stubProfiles{user: testUser()}, testLogger())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.submits != 0 {
		t.Fatalf("submit should not run")
	}
}

func TestCheckoutSubmitProfileFailure(t *testing.T) {
	svc := &stubCheckoutService{}
	req := shopperRequest(t, http.MethodPost, "/api/v1/checkout/submit", map[string]any{}, testPrincipal(), nil)
	rec := httptest.NewRecorder()

	CheckoutSubmit(svc, stubProfiles{err: errors.New("db down")}, testLogger())(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	if svc.submits != 0 {
		t.Fatalf("submit should not run")
	}
}
