package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrMaintenance matches any error produced by a 503 response.
var ErrMaintenance = errors.New("service under maintenance")

// ValidationError is raised before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// AuthError means the session was rejected. By the time it is returned the
// persisted session has already been cleared; the caller must log in again
// at LoginPath. The failed call is never retried.
type AuthError struct {
	Status    int
	Message   string
	LoginPath string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("session expired, log in again (%s): %s", e.LoginPath, e.Message)
}

// Error is a non-2xx response. Message is the backend's detail or message
// field, or "Request failed".
type Error struct {
	Status  int
	Message string
	Body    []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

func (e *Error) Is(target error) bool {
	return target == ErrMaintenance && e.Status == http.StatusServiceUnavailable
}

// NetworkError means the backend could not be reached at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "backend unreachable: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

func IsMaintenance(err error) bool { return errors.Is(err, ErrMaintenance) }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Status
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// Message is the text to show a user for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}

func isTokenFailure(status int, msg string) bool {
	switch status {
	case http.StatusUnauthorized:
		return true
	case http.StatusForbidden:
		m := strings.ToLower(msg)
		return strings.Contains(m, "token") || strings.Contains(m, "unauthorized")
	}
	return false
}
