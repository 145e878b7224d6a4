package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/restaurant-storefront/api/middleware"
	"github.com/angelmondragon/restaurant-storefront/internal/auth"
	"github.com/angelmondragon/restaurant-storefront/internal/checkout"
	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
)

type profileReader interface {
	Me(ctx context.Context, accessID string) (*auth.User, error)
}

func sessionID(r *http.Request) (string, error) {
	id := middleware.SessionIDFromContext(r.Context())
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "session context missing")
	}
	return id, nil
}

func principal(r *http.Request) (*middleware.Principal, error) {
	p := middleware.PrincipalFromContext(r.Context())
	if p == nil {
		return nil, i18n.Error(pkgerrors.CodeUnauthorized, i18n.MsgAuthRequired)
	}
	return p, nil
}

// customer loads the shopper's current contact details; the profile phone is what the gate checks.
func customer(ctx context.Context, profiles profileReader, p *middleware.Principal) (*checkout.Customer, error) {
	if p == nil {
		return nil, nil
	}
	user, err := profiles.Me(ctx, p.AccessID)
	if err != nil {
		return nil, err
	}
	return &checkout.Customer{
		UserID: user.ID.String(),
		Name:   user.FullName,
		Email:  user.Email,
		Phone:  user.Phone,
	}, nil
}

func localized(ctx context.Context, key i18n.Key) string {
	if key == "" {
		return ""
	}
	return i18n.Message(i18n.FromContext(ctx), key)
}
