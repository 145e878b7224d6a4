package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
)

const (
	defaultTimeout          = 15 * time.Second
	responseBodyLimit int64 = 1 << 20
)

var errBaseURLRequired = errors.New("backend base url is required")

// Client talks to the restaurant REST API that owns orders, payments, addresses and auth.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	serviceToken string
	logger       *logger.Logger
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

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithServiceToken sets the bearer used for calls made without a shopper session.
func WithServiceToken(token string) Option {
	return func(c *Client) {
		c.serviceToken = strings.TrimSpace(token)
	}
}

// WithLogger enables request/response logging.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logger = logg
	}
}

// NewClient builds the backend client for baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// ServiceToken returns the configured service bearer.
func (c *Client) ServiceToken() string {
	if c == nil {
		return ""
	}
	return c.serviceToken
}

// APIError is the decoded non-2xx response of the backend.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend status %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend status %d: %s", e.Status, e.Message)
}

func (e *APIError) UpstreamStatus() int { return e.Status }
func (e *APIError) UpstreamCode() string { return e.Code }

// StatusOf returns the backend HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// CodeOf returns the backend error code carried by err, or "".
func CodeOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// Do sends body as JSON to path and decodes the response into out.
// Responses wrapped in {"data": ...} are unwrapped.
func (c *Client) Do(ctx context.Context, method, path, token string, body, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "backend client not configured")
	}
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal backend request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(path, "/"), reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build backend request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer := strings.TrimSpace(token); bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if requestID := logger.RequestID(ctx); requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}
	req.Header.Set("Accept-Language", string(i18n.FromContext(ctx)))

	c.log(ctx, "request", op, nil)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("backend %s failed", op))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read backend response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp.StatusCode, raw)
		c.log(ctx, "error", op, map[string]any{"status": resp.StatusCode, "error": apiErr.Error()})
		return pkgerrors.Wrap(domainCodeForStatus(resp.StatusCode), apiErr, fmt.Sprintf("backend %s failed", op))
	}
	c.log(ctx, "response", op, map[string]any{"status": resp.StatusCode})

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := decodeBody(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode backend response")
	}
	return nil
}

func decodeBody(raw []byte, out any) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		return json.Unmarshal(envelope.Data, out)
	}
	return json.Unmarshal(raw, out)
}

func decodeAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{Status: status}
	var payload struct {
		Message string          `json:"message"`
		Code    string          `json:"code"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Message == "" {
		apiErr.Message = payload.Message
	}
	apiErr.Code = payload.Code
	if len(payload.Error) > 0 {
		var text string
		if json.Unmarshal(payload.Error, &text) == nil {
			if apiErr.Message == "" {
				apiErr.Message = text
			}
		} else {
			var nested struct {
				Message string `json:"message"`
				Code    string `json:"code"`
			}
			if json.Unmarshal(payload.Error, &nested) == nil {
				if apiErr.Message == "" {
					apiErr.Message = nested.Message
				}
				if apiErr.Code == "" {
					apiErr.Code = nested.Code
				}
			}
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Warn(ctx, "backend.call_failed")
	default:
		c.logger.Debug(ctx, "backend "+phase)
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "password", "secret", "email", "phone", "authorization"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}
