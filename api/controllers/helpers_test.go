package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/restaurant-storefront/api/middleware"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
)

const testSessionID = "2f0c9a86-4a3b-4c1e-9d3a-5b7f0e2c8a11"

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func testPrincipal() *middleware.Principal {
	return &middleware.Principal{
		UserID:       uuid.MustParse("9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d"),
		AccessID:     "access-1",
		BackendToken: "backend-token",
		Email:        "shopper@example.com",
		Name:         "Mona",
	}
}

// shopperRequest builds a request as it looks after the session, language and auth middleware ran.
func shopperRequest(t *testing.T, method, target string, body any, p *middleware.Principal, params map[string]string) *http.Request {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	ctx := middleware.WithSessionID(req.Context(), testSessionID)
	ctx = i18n.WithLang(ctx, i18n.LangEN)
	if p != nil {
		ctx = middleware.WithPrincipal(ctx, p)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Key     string `json:"key"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	envelope := struct {
		Error errorBody `json:"error"`
	}{}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error
}
