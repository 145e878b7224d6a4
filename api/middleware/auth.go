package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/angelmondragon/restaurant-storefront/api/responses"
	pkgAuth "github.com/angelmondragon/restaurant-storefront/pkg/auth"
	"github.com/angelmondragon/restaurant-storefront/pkg/auth/session"
	"github.com/angelmondragon/restaurant-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
)

// Auth requires a valid storefront JWT backed by a live Redis session.
func Auth(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(cfg, sessions, logg, true)
}

// OptionalAuth attaches the principal when a token is present and lets guests through otherwise.
// A presented but invalid token is still rejected.
func OptionalAuth(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(cfg, sessions, logg, false)
}

func authenticate(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if required {
					responses.WriteError(r.Context(), logg, w, i18n.Error(pkgerrors.CodeUnauthorized, i18n.MsgAuthRequired))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			principal, err := resolvePrincipal(r.Context(), cfg, sessions, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			if logg != nil {
				ctx = logg.WithUserID(ctx, principal.UserID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolvePrincipal(ctx context.Context, cfg config.JWTConfig, sessions session.AccessSessionChecker, token string) (*Principal, error) {
	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return nil, i18n.Wrap(pkgerrors.CodeUnauthorized, err, i18n.MsgAuthRequired)
	}
	if sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "session store unavailable")
	}
	record, err := sessions.Get(ctx, claims.ID)
	if errors.Is(err, session.ErrSessionNotFound) {
		return nil, i18n.Error(pkgerrors.CodeUnauthorized, i18n.MsgAuthRequired)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
	}
	if record.UserID != claims.UserID {
		return nil, i18n.Error(pkgerrors.CodeUnauthorized, i18n.MsgAuthRequired)
	}
	return &Principal{
		UserID:       claims.UserID,
		AccessID:     claims.ID,
		BackendToken: record.BackendToken,
		Email:        record.Email,
		Name:         record.Name,
	}, nil
}

func bearerToken(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
