package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func TestGoogleProviderReadsClaims(t *testing.T) {
	provider, err := NewGoogleProvider("client-1")
	require.NoError(t, err)

	var audience string
	provider.validate = func(_ context.Context, token, aud string) (*idtoken.Payload, error) {
		audience = aud
		return &idtoken.Payload{
			Subject: "google-sub",
			Claims:  map[string]interface{}{"email": "mona@example.com", "name": "Mona"},
		}, nil
	}

	cred, err := provider.Initiate(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, "client-1", audience)
	assert.Equal(t, enums.AuthProviderGoogle, cred.Provider)
	assert.Equal(t, "google-sub", cred.Subject)
	assert.Equal(t, "mona@example.com", cred.Email)
	assert.Equal(t, "Mona", cred.Name)
}

func TestGoogleProviderRejectsInvalidToken(t *testing.T) {
	provider, err := NewGoogleProvider("client-1")
	require.NoError(t, err)
	provider.validate = func(context.Context, string, string) (*idtoken.Payload, error) {
		return nil, errors.New("audience mismatch")
	}

	_, err = provider.Initiate(context.Background(), "id-token")
	assert.ErrorIs(t, err, errInvalidOAuthToken)

	_, err = NewGoogleProvider(" ")
	assert.Error(t, err)
}

func graphServer(t *testing.T, appID, debugUser, meUser string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/debug_token":
			assert.Equal(t, "app-1|secret", r.URL.Query().Get("access_token"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{"app_id": appID, "user_id": debugUser, "is_valid": true},
			})
		case "/me":
			assert.Equal(t, "fb-token", r.URL.Query().Get("access_token"))
			_ = json.NewEncoder(w).Encode(map[string]any{"id": meUser, "name": "Omar", "email": "omar@example.com"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFacebookProviderVerifiesToken(t *testing.T) {
	srv := graphServer(t, "app-1", "fb-42", "fb-42")
	provider, err := NewFacebookProvider("app-1", "secret", srv.Client())
	require.NoError(t, err)
	provider.baseURL = srv.URL

	cred, err := provider.Initiate(context.Background(), "fb-token")
	require.NoError(t, err)
	assert.Equal(t, enums.AuthProviderFacebook, cred.Provider)
	assert.Equal(t, "fb-42", cred.Subject)
	assert.Equal(t, "omar@example.com", cred.Email)
}

func TestFacebookProviderRejectsForeignApp(t *testing.T) {
	srv := graphServer(t, "other-app", "fb-42", "fb-42")
	provider, err := NewFacebookProvider("app-1", "secret", srv.Client())
	require.NoError(t, err)
	provider.baseURL = srv.URL

	_, err = provider.Initiate(context.Background(), "fb-token")
	assert.ErrorIs(t, err, errInvalidOAuthToken)
}

func TestFacebookProviderRejectsUserMismatch(t *testing.T) {
	srv := graphServer(t, "app-1", "fb-42", "fb-99")
	provider, err := NewFacebookProvider("app-1", "secret", srv.Client())
	require.NoError(t, err)
	provider.baseURL = srv.URL

	_, err = provider.Initiate(context.Background(), "fb-token")
	assert.ErrorIs(t, err, errInvalidOAuthToken)
}
