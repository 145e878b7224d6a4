package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
)

// MaxBodyBytes caps storefront request payloads. Cart notes and addresses
// are the largest bodies the storefront accepts.
const MaxBodyBytes = 64 << 10

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// DecodeJSONBody decodes a single JSON object into dest and validates it.
// Field messages are rendered in the request language.
func DecodeJSONBody(r *http.Request, dest any) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	defer func() {
		_, _ = io.Copy(io.Discard, body)
	}()

	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return i18n.Wrap(pkgerrors.CodeValidation, err, i18n.MsgBodyTooLarge)
		}
		return i18n.Wrap(pkgerrors.CodeValidation, err, i18n.MsgInvalidRequest).
			WithDetails(map[string]any{"error": err.Error()})
	}
	if decoder.More() {
		return i18n.Error(pkgerrors.CodeValidation, i18n.MsgInvalidRequest).
			WithDetails(map[string]any{"error": "unexpected data after JSON object"})
	}
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(i18n.FromContext(r.Context()), err)
	}
	return nil
}

func formatValidationErrors(lang i18n.Lang, err error) *pkgerrors.Error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return i18n.Wrap(pkgerrors.CodeValidation, err, i18n.MsgInvalidRequest)
	}
	details := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		details[fieldPath(fieldErr)] = fieldMessage(lang, fieldErr)
	}
	return i18n.Error(pkgerrors.CodeValidation, i18n.MsgInvalidRequest).WithDetails(details)
}

// fieldPath drops the top-level struct name so nested fields read as
// "address.street" and slice entries as "choices[1]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(lang i18n.Lang, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return i18n.Message(lang, i18n.MsgFieldRequired)
	case "min":
		return fmt.Sprintf(i18n.Message(lang, i18n.MsgFieldMin), fe.Param())
	case "max":
		return fmt.Sprintf(i18n.Message(lang, i18n.MsgFieldMax), fe.Param())
	case "email":
		return i18n.Message(lang, i18n.MsgFieldEmail)
	case "oneof":
		return fmt.Sprintf(i18n.Message(lang, i18n.MsgFieldOneOf), strings.Join(strings.Fields(fe.Param()), ", "))
	case "latitude", "longitude":
		return i18n.Message(lang, i18n.MsgFieldLocation)
	}
	return i18n.Message(lang, i18n.MsgFieldInvalid)
}
