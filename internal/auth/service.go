package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	pkgauth "github.com/angelmondragon/restaurant-storefront/pkg/auth"
	"github.com/angelmondragon/restaurant-storefront/pkg/auth/session"
	"github.com/angelmondragon/restaurant-storefront/pkg/backend"
	"github.com/angelmondragon/restaurant-storefront/pkg/config"
	"github.com/angelmondragon/restaurant-storefront/pkg/db/models"
	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
	"github.com/google/uuid"
)

type backendDoer interface {
	Do(ctx context.Context, method, path, token string, body, out any) error
}

type profileReader interface {
	FindProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

type sessionStore interface {
	Create(ctx context.Context, accessID string, record session.Record) error
	Get(ctx context.Context, accessID string) (*session.Record, error)
	Revoke(ctx context.Context, accessID string) error
}

// Service signs shoppers in through the backend and keeps their backend token server-side.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error)
	OAuthLogin(ctx context.Context, provider enums.AuthProvider, token string) (*LoginResponse, error)
	Logout(ctx context.Context, accessID string) error
	Me(ctx context.Context, accessID string) (*User, error)
	UpdatePhone(ctx context.Context, accessID, phone string) (*User, error)
}

type ServiceParams struct {
	Backend   backendDoer
	Profiles  profileReader
	Sessions  sessionStore
	Providers []Provider
	JWTConfig config.JWTConfig
	Logger    *logger.Logger
}

type service struct {
	backend   backendDoer
	profiles  profileReader
	sessions  sessionStore
	providers map[enums.AuthProvider]Provider
	jwtCfg    config.JWTConfig
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Backend == nil {
		return nil, fmt.Errorf("backend client is required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profile repository is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	providers := map[enums.AuthProvider]Provider{}
	for _, p := range params.Providers {
		if p != nil {
			providers[p.Name()] = p
		}
	}
	return &service{
		backend:   params.Backend,
		profiles:  params.Profiles,
		sessions:  params.Sessions,
		providers: providers,
		jwtCfg:    params.JWTConfig,
		logg:      params.Logger,
		now:       time.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var out backendAuth
	body := LoginRequest{Email: strings.ToLower(strings.TrimSpace(req.Email)), Password: req.Password}
	if err := s.backend.Do(ctx, http.MethodPost, "/auth/login", "", body, &out); err != nil {
		switch backend.StatusOf(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return nil, i18n.Wrap(pkgerrors.CodeUnauthorized, err, i18n.MsgInvalidCredentials)
		}
		return nil, err
	}
	return s.establish(ctx, out, pkgauth.ProviderPassword)
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	var out backendAuth
	if err := s.backend.Do(ctx, http.MethodPost, "/auth/register", "", req, &out); err != nil {
		return nil, err
	}
	return s.establish(ctx, out, pkgauth.ProviderPassword)
}

func (s *service) OAuthLogin(ctx context.Context, name enums.AuthProvider, token string) (*LoginResponse, error) {
	provider, ok := s.providers[name]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported provider %q", name))
	}
	cred, err := provider.Initiate(ctx, token)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"provider": name.String(), "error": err.Error()}), "auth.oauth_rejected")
		}
		return nil, i18n.Wrap(pkgerrors.CodeUnauthorized, err, i18n.MsgOAuthFailed)
	}
	var out backendAuth
	if err := s.backend.Do(ctx, http.MethodPost, "/auth/"+name.String(), "", cred, &out); err != nil {
		return nil, i18n.Wrap(pkgerrors.CodeUnauthorized, err, i18n.MsgOAuthFailed)
	}
	return s.establish(ctx, out, name.String())
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) Me(ctx context.Context, accessID string) (*User, error) {
	record, err := s.record(ctx, accessID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.FindProfile(ctx, record.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	user := mergeProfile(User{ID: record.UserID, Email: record.Email, FullName: record.Name}, profile)
	return &user, nil
}

func (s *service) UpdatePhone(ctx context.Context, accessID, phone string) (*User, error) {
	record, err := s.record(ctx, accessID)
	if err != nil {
		return nil, err
	}
	body := PhoneRequest{Phone: strings.TrimSpace(phone)}
	if err := s.backend.Do(ctx, http.MethodPut, "/me/phone", record.BackendToken, body, nil); err != nil {
		return nil, err
	}
	return s.Me(ctx, accessID)
}

func (s *service) record(ctx context.Context, accessID string) (*session.Record, error) {
	record, err := s.sessions.Get(ctx, accessID)
	if errors.Is(err, session.ErrSessionNotFound) {
		return nil, i18n.Error(pkgerrors.CodeUnauthorized, i18n.MsgAuthRequired)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	return record, nil
}

// establish turns a backend login into a storefront session. Admin accounts are refused.
func (s *service) establish(ctx context.Context, out backendAuth, provider string) (*LoginResponse, error) {
	if strings.TrimSpace(out.AccessToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "backend returned no access token")
	}
	userID, err := uuid.Parse(strings.TrimSpace(out.User.ID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "backend returned an invalid user id")
	}

	admin, err := s.profiles.IsAdmin(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check admin profile")
	}
	if admin {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, userID.String()), "auth.admin_blocked")
		}
		return nil, i18n.Error(pkgerrors.CodeAdminBlocked, i18n.MsgAdminBlocked)
	}

	profile, err := s.profiles.FindProfile(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	user := mergeProfile(out.User.toUser(userID), profile)

	now := s.now().UTC()
	accessID := session.NewAccessID()
	token, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
		UserID:   userID,
		Email:    user.Email,
		Provider: provider,
		JTI:      accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	if err := s.sessions.Create(ctx, accessID, session.Record{
		UserID:       userID,
		BackendToken: out.AccessToken,
		Email:        user.Email,
		Name:         user.FullName,
		Provider:     provider,
		CreatedAt:    now,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}
	return &LoginResponse{AccessToken: token, ExpiresAt: now.Add(s.jwtCfg.TTL()), User: user}, nil
}
