package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
	"github.com/angelmondragon/restaurant-storefront/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteError renders err as an error envelope. Errors carrying a message key are
// localized to the request language; 5xx responses are logged at error level.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	if localized, ok := i18n.Localize(i18n.FromContext(ctx), typed); ok {
		msg = localized
	} else {
		switch typed.Code() {
		case pkgerrors.CodeValidation,
			pkgerrors.CodeForbidden,
			pkgerrors.CodeUnauthorized,
			pkgerrors.CodeNotFound,
			pkgerrors.CodeConflict,
			pkgerrors.CodeStateConflict,
			pkgerrors.CodeIdempotency,
			pkgerrors.CodeRateLimit,
			pkgerrors.CodeBranchSwitch:
			if m := typed.Message(); m != "" {
				msg = m
			}
		}
	}

	payload := types.ErrorEnvelope{
		Error: types.APIError{
			Code:      string(typed.Code()),
			Message:   msg,
			Key:       typed.Key(),
			RequestID: logger.RequestID(ctx),
		},
	}

	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			payload.Error.Details = details
		}
	}

	if logg != nil {
		dump := pkgerrors.Dump(err)
		fields := map[string]any{
			"error":       dump.TopMessage,
			"error_code":  dump.Code,
			"error_chain": dump.Chain,
			"status":      meta.HTTPStatus,
		}
		if dump.Source != "" {
			fields["error_source"] = dump.Source
		}
		if dump.Timeout {
			fields["timeout"] = true
		}
		switch dump.Source {
		case pkgerrors.SourceBackend:
			fields["upstream_status"] = dump.UpstreamStatus
			if dump.UpstreamCode != "" {
				fields["upstream_code"] = dump.UpstreamCode
			}
		case pkgerrors.SourceCache:
			fields["redis_error"] = dump.RedisMessage
		case pkgerrors.SourceCatalog:
			fields["pg_code"] = dump.PGCode
			fields["pg_constraint"] = dump.PGConstraint
			fields["pg_table"] = dump.PGTable
		}
		if key := typed.Key(); key != "" {
			fields["message_key"] = key
		}
		ctx = logg.WithFields(ctx, fields)
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.rejected")
		}
	}

	writeJSON(w, meta.HTTPStatus, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
