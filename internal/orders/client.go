package orders

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

type backendDoer interface {
	Do(ctx context.Context, method, path, token string, body, out any) error
}

// Order is the backend's view of a created order.
type Order struct {
	ID          string          `json:"id"`
	OrderNumber string          `json:"order_number,omitempty"`
	Status      string          `json:"status,omitempty"`
	Total       decimal.Decimal `json:"total"`
}

// Client creates and cancels orders on the backend.
type Client struct {
	backend backendDoer
}

func NewClient(api backendDoer) (*Client, error) {
	if api == nil {
		return nil, fmt.Errorf("backend client required")
	}
	return &Client{backend: api}, nil
}

// Create submits payload on behalf of the token holder.
func (c *Client) Create(ctx context.Context, token string, payload Payload) (*Order, error) {
	var order Order
	if err := c.backend.Do(ctx, http.MethodPost, "/orders", token, payload, &order); err != nil {
		return nil, err
	}
	if strings.TrimSpace(order.ID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "backend returned an order without id")
	}
	return &order, nil
}

// Cancel asks the backend to cancel orderID.
func (c *Client) Cancel(ctx context.Context, token, orderID string) error {
	if strings.TrimSpace(orderID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return c.backend.Do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/cancel", token, nil, nil)
}
