package enums

import "fmt"

// AuthProvider names a social identity provider.
type AuthProvider string

const (
	AuthProviderGoogle   AuthProvider = "google"
	AuthProviderFacebook AuthProvider = "facebook"
)

var validAuthProviders = []AuthProvider{
	AuthProviderGoogle,
	AuthProviderFacebook,
}

// String implements fmt.Stringer.
func (a AuthProvider) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuthProvider.
func (a AuthProvider) IsValid() bool {
	for _, candidate := range validAuthProviders {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuthProvider converts raw input into an AuthProvider.
func ParseAuthProvider(value string) (AuthProvider, error) {
	for _, candidate := range validAuthProviders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid auth provider %q", value)
}
