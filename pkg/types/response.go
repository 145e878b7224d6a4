package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error shape. Key lets clients pick their own copy
// for a known failure; RequestID is what shoppers quote to support.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Key       string `json:"key,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
