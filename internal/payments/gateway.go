package payments

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

type backendDoer interface {
	Do(ctx context.Context, method, path, token string, body, out any) error
}

// InitiateRequest asks the backend to open an EasyKash payment session for an order.
type InitiateRequest struct {
	OrderID       string  `json:"order_id"`
	Amount        float64 `json:"amount"`
	CustomerName  string  `json:"customer_name"`
	CustomerEmail string  `json:"customer_email"`
	CustomerPhone string  `json:"customer_phone"`
	ReturnURL     string  `json:"return_url"`
	PaymentMethod string  `json:"payment_method,omitempty"`
}

// Session is the gateway-hosted payment page the shopper is redirected to.
type Session struct {
	PaymentID   string `json:"payment_id"`
	RedirectURL string `json:"redirect_url"`
}

// Payment is the backend's view of a payment.
type Payment struct {
	ID        string              `json:"id"`
	OrderID   string              `json:"order_id"`
	Status    enums.PaymentStatus `json:"status"`
	Amount    decimal.Decimal     `json:"amount"`
	Reference string              `json:"reference,omitempty"`
}

// Gateway talks to the payment endpoints of the backend.
type Gateway struct {
	backend backendDoer
}

func NewGateway(api backendDoer) (*Gateway, error) {
	if api == nil {
		return nil, fmt.Errorf("backend client required")
	}
	return &Gateway{backend: api}, nil
}

func (g *Gateway) Initiate(ctx context.Context, token string, req InitiateRequest) (*Session, error) {
	var session Session
	if err := g.backend.Do(ctx, http.MethodPost, "/payments/initiate", token, req, &session); err != nil {
		return nil, err
	}
	if strings.TrimSpace(session.RedirectURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment session has no redirect url")
	}
	return &session, nil
}

func (g *Gateway) Status(ctx context.Context, token, paymentID string) (*Payment, error) {
	return g.fetch(ctx, token, "/payments/status/"+url.PathEscape(paymentID))
}

func (g *Gateway) StatusByOrder(ctx context.Context, token, orderID string) (*Payment, error) {
	return g.fetch(ctx, token, "/payments/order/"+url.PathEscape(orderID))
}

func (g *Gateway) Cancel(ctx context.Context, token, paymentID string) error {
	if strings.TrimSpace(paymentID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	return g.backend.Do(ctx, http.MethodPost, "/payments/cancel/"+url.PathEscape(paymentID), token, nil, nil)
}

func (g *Gateway) fetch(ctx context.Context, token, path string) (*Payment, error) {
	var payment Payment
	if err := g.backend.Do(ctx, http.MethodGet, path, token, nil, &payment); err != nil {
		return nil, err
	}
	payment.Status = enums.PaymentStatus(strings.ToLower(strings.TrimSpace(string(payment.Status))))
	return &payment, nil
}
