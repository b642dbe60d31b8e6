// Package apperr defines the error kinds shared by the proxy, the history
// store and the dashboard controller.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports a missing or malformed input.
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

// NewValidation returns a ValidationError for field.
func NewValidation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ConfigurationError reports missing server-side configuration,
// such as the provider credential.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// UpstreamError reports a failed call to the weather provider.
// StatusCode is zero when no response was received.
type UpstreamError struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("upstream request failed: %v", e.Err)
	}
	return "upstream request failed"
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// HasStatus reports whether the provider answered with a response.
func (e *UpstreamError) HasStatus() bool {
	return e.StatusCode != 0
}

// PersistenceError reports a failed history store operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps an error to the status code the API responds with.
// An UpstreamError carrying a provider status keeps that status.
func HTTPStatus(err error) int {
	var validationErr *ValidationError
	var configErr *ConfigurationError
	var upstreamErr *UpstreamError
	var persistenceErr *PersistenceError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &configErr):
		return http.StatusInternalServerError
	case errors.As(err, &upstreamErr):
		if upstreamErr.HasStatus() {
			return upstreamErr.StatusCode
		}
		return http.StatusBadGateway
	case errors.As(err, &persistenceErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
