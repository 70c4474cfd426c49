package engine

import (
	"encoding/json"
	"net/http"
)

// RequestError is a terminal pipeline error surfaced to the client as a
// JSON error body.
type RequestError struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *RequestError) Error() string { return e.Message }

// NotFound reports a missing endpoint or asset (404).
func NotFound(code, message string) *RequestError {
	return &RequestError{Status: http.StatusNotFound, Code: code, Message: message}
}

// Unauthorized reports a missing or incorrect bearer token (401).
func Unauthorized(message string) *RequestError {
	return &RequestError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: message}
}

// BadRequest reports a failed parameter validation (400).
func BadRequest(message string) *RequestError {
	return &RequestError{Status: http.StatusBadRequest, Code: "bad_request", Message: message}
}

// Internal reports an unusable endpoint configuration (500).
func Internal(message string) *RequestError {
	return &RequestError{Status: http.StatusInternalServerError, Code: "internal_error", Message: message}
}

// writeError writes a RequestError as a JSON response body.
func writeError(w http.ResponseWriter, rerr *RequestError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rerr.Status)
	if raw, err := json.Marshal(rerr); err == nil {
		_, _ = w.Write(raw)
	}
}
