package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// APIError is a non-2xx response. Use errors.As with the typed wrappers
// below, or inspect StatusCode directly.
type APIError struct {
	StatusCode int
	Message    string
	Details    map[string][]string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("[%d] %s", e.StatusCode, e.Message)
}

type (
	// ValidationError is a 400 with per-field details.
	ValidationError struct{ *APIError }
	// AuthenticationError is a 401: the token is missing or invalid.
	AuthenticationError struct{ *APIError }
	// ForbiddenError is a 403: the token lacks the admin role.
	ForbiddenError struct{ *APIError }
	NotFoundError  struct{ *APIError }
	ServerError    struct{ *APIError }
)

func (e *ValidationError) Unwrap() error     { return e.APIError }
func (e *AuthenticationError) Unwrap() error { return e.APIError }
func (e *ForbiddenError) Unwrap() error      { return e.APIError }
func (e *NotFoundError) Unwrap() error       { return e.APIError }
func (e *ServerError) Unwrap() error         { return e.APIError }

// ConnectionError wraps transport failures (DNS, refused, timeout).
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return "failed to connect to the Virtual Clinic API: " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var payload struct {
		Error   string              `json:"error"`
		Details map[string][]string `json:"details"`
	}
	_ = json.Unmarshal(body, &payload)

	msg := payload.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	if msg == "" {
		msg = "Unknown error"
	}

	base := &APIError{StatusCode: resp.StatusCode, Message: msg, Details: payload.Details, Body: body}
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return &ValidationError{base}
	case resp.StatusCode == http.StatusUnauthorized:
		return &AuthenticationError{base}
	case resp.StatusCode == http.StatusForbidden:
		return &ForbiddenError{base}
	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{base}
	case resp.StatusCode >= 500:
		return &ServerError{base}
	default:
		return base
	}
}
