// ABOUTME: Unit tests for the OpenAI-compatible error envelope helpers
// ABOUTME: Validates envelope shape, error types, and HTTP headers

package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		code         string
		message      string
		expectedType string
	}{
		{
			name:         "bad request error",
			status:       http.StatusBadRequest,
			code:         ErrInvalidBody,
			message:      "Request body is malformed",
			expectedType: TypeInvalidRequest,
		},
		{
			name:         "unauthorized error",
			status:       http.StatusUnauthorized,
			code:         ErrInvalidAPIKey,
			message:      "Incorrect API key provided.",
			expectedType: TypeAuthentication,
		},
		{
			name:         "rate limited",
			status:       http.StatusTooManyRequests,
			code:         ErrRateLimited,
			message:      "Slow down",
			expectedType: TypeRateLimit,
		},
		{
			name:         "internal server error",
			status:       http.StatusInternalServerError,
			code:         ErrInternal,
			message:      "The server had an error while processing your request.",
			expectedType: TypeServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.status, tt.code, tt.message)

			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", ct)
			}

			var resp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Error.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, resp.Error.Code)
			}
			if resp.Error.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, resp.Error.Message)
			}
			if resp.Error.Type != tt.expectedType {
				t.Errorf("expected type %s, got %s", tt.expectedType, resp.Error.Type)
			}
			if resp.Error.Param != nil {
				t.Errorf("expected null param, got %q", *resp.Error.Param)
			}
		})
	}
}

func TestWriteErrorWithParam(t *testing.T) {
	w := httptest.NewRecorder()
	WriteErrorWithParam(w, http.StatusBadRequest, ErrMissingField, "messages is required", "messages")

	var raw map[string]map[string]any
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	body, ok := raw["error"]
	if !ok {
		t.Fatalf("response has no error envelope: %v", raw)
	}
	if body["param"] != "messages" {
		t.Errorf("expected param messages, got %v", body["param"])
	}
	if body["code"] != ErrMissingField {
		t.Errorf("expected code %s, got %v", ErrMissingField, body["code"])
	}
}
