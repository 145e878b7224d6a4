package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
)

const (
	defaultBaseURL               = "https://maps.googleapis.com/maps/api"
	responseBodyReadLimit  int64 = 1024
	geocodeStatusOK              = "OK"
	geocodeStatusNoResults       = "ZERO_RESULTS"
)

var errAPIKeyRequired = errors.New("google maps api key is required")

// ErrNoResults is returned when Google cannot place the address.
var ErrNoResults = errors.New("address could not be geocoded")

// Client wraps the Google Geocoding API used to place delivery addresses.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	region     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the Maps API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithRegion biases results towards a ccTLD region code.
func WithRegion(region string) Option {
	return func(c *Client) {
		c.region = strings.ToLower(strings.TrimSpace(region))
	}
}

// NewClient builds the Google Maps client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// GeocodeRequest is the free-text address to place.
type GeocodeRequest struct {
	Address  string
	Language string
}

// LatLng is the latitude/longitude pair returned by Google.
type LatLng struct {
	Latitude  float64
	Longitude float64
}

// GeocodeResult is the best match for a geocoded address.
type GeocodeResult struct {
	PlaceID          string
	FormattedAddress string
	Location         LatLng
}

// Geocode resolves free-text address into coordinates.
func (c *Client) Geocode(ctx context.Context, req GeocodeRequest) (*GeocodeResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google maps client not configured")
	}
	address := strings.TrimSpace(req.Address)
	if address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}

	params := url.Values{}
	params.Set("address", address)
	params.Set("key", c.apiKey)
	if c.region != "" {
		params.Set("region", c.region)
	}
	if lang := strings.TrimSpace(req.Language); lang != "" {
		params.Set("language", lang)
	}
	endpoint := fmt.Sprintf("%s/geocode/json?%s", strings.TrimRight(c.baseURL, "/"), params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build geocode request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute geocode request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "geocode request failed")
	}

	var apiResp struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
		Results      []struct {
			PlaceID          string `json:"place_id"`
			FormattedAddress string `json:"formatted_address"`
			Geometry         struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode geocode response")
	}

	switch apiResp.Status {
	case geocodeStatusOK:
	case geocodeStatusNoResults:
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrNoResults, "geocode returned no results")
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("%s: %s", apiResp.Status, apiResp.ErrorMessage), "geocode request rejected")
	}
	if len(apiResp.Results) == 0 {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrNoResults, "geocode returned no results")
	}

	best := apiResp.Results[0]
	return &GeocodeResult{
		PlaceID:          best.PlaceID,
		FormattedAddress: best.FormattedAddress,
		Location: LatLng{
			Latitude:  best.Geometry.Location.Lat,
			Longitude: best.Geometry.Location.Lng,
		},
	}, nil
}
