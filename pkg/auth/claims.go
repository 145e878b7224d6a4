package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ProviderPassword marks email and password sign-ins; social sign-ins
// record their enums.AuthProvider value.
const ProviderPassword = "password"

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Email    string
	Provider string
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to storefront clients.
// The jti keys the server-side session holding the backend credential.
type AccessTokenClaims struct {
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email,omitempty"`
	Provider string    `json:"provider,omitempty"`
	jwt.RegisteredClaims
}
