package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxSessionID contextKey = "session_id"
	ctxPrincipal contextKey = "principal"
)

// Principal is the signed-in shopper attached by Auth. BackendToken is forwarded to the restaurant API.
type Principal struct {
	UserID       uuid.UUID
	AccessID     string
	BackendToken string
	Email        string
	Name         string
}

func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// WithSessionID injects the storefront session identifier into the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

// PrincipalFromContext returns the authenticated shopper, or nil for guests.
func PrincipalFromContext(ctx context.Context) *Principal {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxPrincipal).(*Principal); ok {
		return v
	}
	return nil
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}

// UserIDFromContext returns the shopper id as a string, or "" for guests.
func UserIDFromContext(ctx context.Context) string {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.UserID.String()
	}
	return ""
}

// BackendTokenFromContext returns the backend bearer token of the signed-in shopper.
func BackendTokenFromContext(ctx context.Context) string {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.BackendToken
	}
	return ""
}
