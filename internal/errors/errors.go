// ABOUTME: OpenAI-compatible error envelopes for the mock generation server.
// ABOUTME: Clients built on the official SDK decode these as API errors.

package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the inner error object.
type ErrorBody struct {
	Message string  `json:"message"`
	Type    string  `json:"type"`
	Param   *string `json:"param"`
	Code    string  `json:"code,omitempty"`
}

// ErrorResponse is the envelope every error is wrapped in:
//
//	{"error": {"message": "...", "type": "...", "param": null, "code": "..."}}
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// WriteError writes an error envelope. The error type is derived from status.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeErrorResponse(w, status, ErrorBody{
		Message: message,
		Type:    TypeForStatus(status),
		Code:    code,
	})
}

// WriteErrorWithParam writes an error envelope naming the offending request
// parameter, for validation errors.
func WriteErrorWithParam(w http.ResponseWriter, status int, code, message, param string) {
	writeErrorResponse(w, status, ErrorBody{
		Message: message,
		Type:    TypeForStatus(status),
		Param:   &param,
		Code:    code,
	})
}

func writeErrorResponse(w http.ResponseWriter, status int, body ErrorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: body})
}

// TypeForStatus maps an HTTP status to the error type string.
func TypeForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return TypeAuthentication
	case status == http.StatusTooManyRequests:
		return TypeRateLimit
	case status >= 500:
		return TypeServer
	default:
		return TypeInvalidRequest
	}
}

// Error types
const (
	TypeInvalidRequest = "invalid_request_error"
	TypeAuthentication = "authentication_error"
	TypeRateLimit      = "rate_limit_error"
	TypeServer         = "server_error"
)

// Error codes
const (
	// Client errors (4xx)
	ErrInvalidRequest = "invalid_request"
	ErrInvalidBody    = "invalid_request_body"
	ErrMissingField   = "missing_required_parameter"
	ErrInvalidAPIKey  = "invalid_api_key"
	ErrModelNotFound  = "model_not_found"
	ErrRateLimited    = "rate_limit_exceeded"

	// Server errors (5xx)
	ErrInternal           = "internal_error"
	ErrServiceUnavailable = "service_unavailable"
)
