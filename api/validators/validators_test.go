package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
)

type sampleBody struct {
	Email    string `json:"email" validate:"required,email"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

type lineBody struct {
	Kind    string       `json:"kind" validate:"required,oneof=product offer"`
	Address *addressBody `json:"address" validate:"omitempty"`
}

type addressBody struct {
	Lat float64 `json:"lat" validate:"omitempty,latitude"`
}

func jsonRequest(lang i18n.Lang, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	return req.WithContext(i18n.WithLang(req.Context(), lang))
}

func validationDetails(t *testing.T, err error) map[string]string {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, string(i18n.MsgInvalidRequest), typed.Key())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	return details
}

func TestDecodeJSONBodyValidates(t *testing.T) {
	var body sampleBody
	details := validationDetails(t, DecodeJSONBody(jsonRequest(i18n.LangEN, `{"email":"nope","quantity":0}`), &body))

	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be at least 1", details["quantity"])
}

func TestDecodeJSONBodyLocalizesFieldMessages(t *testing.T) {
	var body sampleBody
	details := validationDetails(t, DecodeJSONBody(jsonRequest(i18n.LangAR, `{"email":"","quantity":0}`), &body))

	assert.Equal(t, "هذا الحقل مطلوب", details["email"])
	assert.Equal(t, "يجب ألا يقل عن 1", details["quantity"])
}

func TestDecodeJSONBodyNamesNestedFields(t *testing.T) {
	var body lineBody
	details := validationDetails(t, DecodeJSONBody(jsonRequest(i18n.LangEN, `{"kind":"bundle","address":{"lat":120}}`), &body))

	assert.Equal(t, "must be one of: product, offer", details["kind"])
	assert.Equal(t, "must be a valid map coordinate", details["address.lat"])
}

func TestDecodeJSONBodyRejectsTrailingData(t *testing.T) {
	var body sampleBody
	err := DecodeJSONBody(jsonRequest(i18n.LangEN, `{"email":"a@b.co","quantity":1}{"email":"c@d.co"}`), &body)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestDecodeJSONBodyCapsPayloadSize(t *testing.T) {
	note := strings.Repeat("x", MaxBodyBytes)
	var body map[string]string
	err := DecodeJSONBody(jsonRequest(i18n.LangEN, `{"note":"`+note+`"}`), &body)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, string(i18n.MsgBodyTooLarge), typed.Key())
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","quantity":1,"price":1}`))
	var body sampleBody
	assert.Error(t, DecodeJSONBody(req, &body))
}

func TestParseQueryHelpers(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/?branch_id="+id.String()+"&confirm=true", nil)

	got, err := ParseQueryUUID(req, "branch_id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	confirm, err := ParseQueryBool(req, "confirm")
	require.NoError(t, err)
	assert.True(t, confirm)

	bad := httptest.NewRequest(http.MethodGet, "/?branch_id=x", nil)
	_, err = ParseQueryUUID(bad, "branch_id")
	assert.Error(t, err)
}

func TestSanitizeStringCountsRunes(t *testing.T) {
	assert.Equal(t, "بدون", SanitizeString("  بدون بصل ", 4))
	assert.Equal(t, "ok", SanitizeString(" ok ", 0))
}
