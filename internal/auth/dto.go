package auth

import (
	"strings"
	"time"

	"github.com/angelmondragon/restaurant-storefront/pkg/db/models"
	"github.com/google/uuid"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,min=8,max=20"`
}

type OAuthRequest struct {
	Token string `json:"token" validate:"required"`
}

type PhoneRequest struct {
	Phone string `json:"phone" validate:"required,min=8,max=20"`
}

// User is the shopper as the storefront exposes it.
type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email,omitempty"`
	FullName string    `json:"full_name,omitempty"`
	Phone    string    `json:"phone,omitempty"`
}

// LoginResponse carries the storefront token. The backend token stays server-side.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

// backendAuth is the backend's answer to every /auth/* call.
type backendAuth struct {
	AccessToken string      `json:"access_token"`
	User        backendUser `json:"user"`
}

type backendUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

func (u backendUser) toUser(id uuid.UUID) User {
	return User{ID: id, Email: u.Email, FullName: u.FullName, Phone: u.Phone}
}

func mergeProfile(u User, profile *models.Profile) User {
	if profile == nil {
		return u
	}
	if v := deref(profile.FullName); v != "" {
		u.FullName = v
	}
	if v := deref(profile.Email); v != "" && u.Email == "" {
		u.Email = v
	}
	if v := deref(profile.Phone); v != "" {
		u.Phone = v
	}
	return u
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
