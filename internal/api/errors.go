package api

import (
	"errors"
	"fmt"
	"net/http"
)

// NetworkError means no response reached the client.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError is returned for a 401 response. By the time a caller sees it the
// stored credential has been removed and the navigator has been notified.
type AuthError struct {
	Message   string
	RequestID string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return "authentication failed: " + e.Message
	}
	return "authentication failed"
}

// ServerError is any other non-2xx response.
type ServerError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id"`
	Body       string `json:"body"`
}

func (e *ServerError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("server error (status %d, request %s): %s", e.StatusCode, e.RequestID, e.Message)
	}
	return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Message)
}

// IsClientError returns true for 4xx responses.
func (e *ServerError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsServerError returns true for 5xx responses.
func (e *ServerError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// ValidationError is raised client-side before any request is issued.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Invalid builds a ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var se *ServerError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports whether err is an AuthError.
func IsUnauthorized(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// Message converts err into a message suitable for end users. Backend-provided
// messages win; errors without one produce fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var (
		se *ServerError
		ae *AuthError
		ne *NetworkError
		ve *ValidationError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &ae):
		if ae.Message != "" {
			return ae.Message
		}
		return "session expired, please sign in again"
	case errors.As(err, &se):
		if se.Message != "" {
			return se.Message
		}
	case errors.As(err, &ne):
		return "unable to reach the server"
	}
	return fallback
}
