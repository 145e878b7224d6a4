package maps

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func okResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestGeocodeRequest(t *testing.T) {
	respBody := `{"status":"OK","results":[{"place_id":"place_1","formatted_address":"Nasr City, Cairo","geometry":{"location":{"lat":30.05,"lng":31.33}}}]}`

	var captured *http.Request
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		captured = req
		return okResponse(respBody), nil
	})

	client, err := NewClient("test-key", WithBaseURL("http://maps.test/api"), WithRegion("EG"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	result, err := client.Geocode(context.Background(), GeocodeRequest{Address: "Abbas El Akkad, Nasr City", Language: "ar"})
	if err != nil {
		t.Fatalf("geocode: %v", err)
	}
	if captured.URL.Path != "/api/geocode/json" {
		t.Fatalf("unexpected path %q", captured.URL.Path)
	}
	query := captured.URL.Query()
	if query.Get("key") != "test-key" || query.Get("region") != "eg" || query.Get("language") != "ar" {
		t.Fatalf("unexpected query %v", query)
	}
	if query.Get("address") != "Abbas El Akkad, Nasr City" {
		t.Fatalf("unexpected address %q", query.Get("address"))
	}
	if result.PlaceID != "place_1" || result.Location.Latitude != 30.05 || result.Location.Longitude != 31.33 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestGeocodeZeroResults(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return okResponse(`{"status":"ZERO_RESULTS","results":[]}`), nil
	})
	client, _ := NewClient("k", WithHTTPClient(&http.Client{Transport: rt}))

	_, err := client.Geocode(context.Background(), GeocodeRequest{Address: "nowhere"})
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestGeocodeDeniedIsDependencyError(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return okResponse(`{"status":"REQUEST_DENIED","error_message":"bad key"}`), nil
	})
	client, _ := NewClient("k", WithHTTPClient(&http.Client{Transport: rt}))

	_, err := client.Geocode(context.Background(), GeocodeRequest{Address: "Cairo"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency code, got %v", err)
	}
}

func TestGeocodeRequiresAddress(t *testing.T) {
	client, _ := NewClient("k")
	if _, err := client.Geocode(context.Background(), GeocodeRequest{Address: "  "}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(""); err == nil {
		t.Fatalf("expected error for missing key")
	}
}
