package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrQueued is returned by offline-aware mutations that were stored for
// replay instead of being sent.
var ErrQueued = errors.New("queued for replay")

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Err        string `json:"error,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Err, e.Message)
	}

	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the resource does not exist.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsAuthError returns true if the credentials were rejected.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Retryable returns true if sending the same request later may succeed.
func (e *APIError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}

	return e.StatusCode >= 500
}
