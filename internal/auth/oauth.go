package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	"google.golang.org/api/idtoken"
)

const facebookGraphURL = "https://graph.facebook.com"

var errInvalidOAuthToken = errors.New("oauth token rejected")

// Credential is what the backend needs to sign a social user in.
type Credential struct {
	Provider enums.AuthProvider `json:"provider"`
	Token    string             `json:"token"`
	Subject  string             `json:"subject"`
	Email    string             `json:"email,omitempty"`
	Name     string             `json:"name,omitempty"`
}

// Provider verifies a client-side OAuth token and turns it into a Credential.
type Provider interface {
	Name() enums.AuthProvider
	Initiate(ctx context.Context, token string) (*Credential, error)
}

type idTokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// GoogleProvider verifies Google ID tokens issued for the storefront client id.
type GoogleProvider struct {
	clientID string
	validate idTokenValidator
}

func NewGoogleProvider(clientID string) (*GoogleProvider, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, fmt.Errorf("google client id required")
	}
	return &GoogleProvider{clientID: clientID, validate: idtoken.Validate}, nil
}

func (p *GoogleProvider) Name() enums.AuthProvider { return enums.AuthProviderGoogle }

func (p *GoogleProvider) Initiate(ctx context.Context, token string) (*Credential, error) {
	payload, err := p.validate(ctx, token, p.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidOAuthToken, err)
	}
	cred := &Credential{Provider: enums.AuthProviderGoogle, Token: token, Subject: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		cred.Email = email
	}
	if name, ok := payload.Claims["name"].(string); ok {
		cred.Name = name
	}
	return cred, nil
}

// FacebookProvider checks user access tokens against the Graph API.
type FacebookProvider struct {
	appID     string
	appSecret string
	baseURL   string
	client    *http.Client
}

func NewFacebookProvider(appID, appSecret string, client *http.Client) (*FacebookProvider, error) {
	if strings.TrimSpace(appID) == "" || strings.TrimSpace(appSecret) == "" {
		return nil, fmt.Errorf("facebook app id and secret required")
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &FacebookProvider{appID: appID, appSecret: appSecret, baseURL: facebookGraphURL, client: client}, nil
}

func (p *FacebookProvider) Name() enums.AuthProvider { return enums.AuthProviderFacebook }

type debugTokenResponse struct {
	Data struct {
		AppID   string `json:"app_id"`
		UserID  string `json:"user_id"`
		IsValid bool   `json:"is_valid"`
	} `json:"data"`
}

type graphUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (p *FacebookProvider) Initiate(ctx context.Context, token string) (*Credential, error) {
	var debug debugTokenResponse
	q := url.Values{}
	q.Set("input_token", token)
	q.Set("access_token", p.appID+"|"+p.appSecret)
	if err := p.get(ctx, "/debug_token", q, &debug); err != nil {
		return nil, err
	}
	if !debug.Data.IsValid || debug.Data.AppID != p.appID {
		return nil, errInvalidOAuthToken
	}

	var me graphUser
	q = url.Values{}
	q.Set("fields", "id,name,email")
	q.Set("access_token", token)
	if err := p.get(ctx, "/me", q, &me); err != nil {
		return nil, err
	}
	if me.ID != debug.Data.UserID {
		return nil, errInvalidOAuthToken
	}
	return &Credential{
		Provider: enums.AuthProviderFacebook,
		Token:    token,
		Subject:  me.ID,
		Email:    me.Email,
		Name:     me.Name,
	}, nil
}

func (p *FacebookProvider) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build graph request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("graph %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: graph %s returned %d", errInvalidOAuthToken, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode graph %s: %w", path, err)
	}
	return nil
}
