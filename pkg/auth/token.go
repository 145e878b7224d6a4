package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/restaurant-storefront/pkg/config"
)

// StorefrontAudience scopes tokens to shopper clients. Backend staff tokens
// signed with the same secret carry a different audience and are refused.
const StorefrontAudience = "storefront"

// clockSkew absorbs drift between the API pods and mobile clients.
const clockSkew = 30 * time.Second

var (
	jwtSigningMethod = jwt.SigningMethodHS256

	errSecretRequired = errors.New("jwt secret is required")
	errMissingJTI     = errors.New("token missing jti")
)

// MintAccessToken signs a shopper token whose jti keys the server-side session.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	switch {
	case cfg.Secret == "":
		return "", errSecretRequired
	case cfg.Issuer == "":
		return "", errors.New("jwt issuer is required")
	case cfg.TTL() <= 0:
		return "", errors.New("jwt expiration minutes must be positive")
	case payload.UserID == uuid.Nil:
		return "", errors.New("user id is required")
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}
	provider := payload.Provider
	if provider == "" {
		provider = ProviderPassword
	}

	claims := AccessTokenClaims{
		UserID:   payload.UserID,
		Email:    payload.Email,
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   payload.UserID.String(),
			Audience:  jwt.ClaimStrings{StorefrontAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL())),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer, audience and expiry.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, errSecretRequired
	}

	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(*jwt.Token) (any, error) { return []byte(cfg.Secret), nil },
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(StorefrontAudience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, errMissingJTI
	}
	if claims.Subject != claims.UserID.String() {
		return nil, errors.New("token subject does not match user")
	}
	return claims, nil
}
