// Package apperr defines the error taxonomy shared by services and handlers.
// Services wrap these sentinels with fmt.Errorf("%w: ...") and handlers map
// them to HTTP status codes with errors.Is.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation marks malformed input. Nothing is persisted.
	ErrValidation = errors.New("validation failed")
	// ErrNotConfigured marks a submission for a job title without a workflow.
	ErrNotConfigured = errors.New("not configured")
	// ErrNotFound marks a lookup of an entity that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState marks a transition on a step that is not currently
	// active. This is the concurrency/idempotency guard, not a bug signal.
	ErrInvalidState = errors.New("invalid state")
	// ErrNotAuthorized marks a decision by someone other than the assignee.
	ErrNotAuthorized = errors.New("not authorized")
)

// HTTPStatus maps a service error to the status code it should surface as.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotConfigured):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrNotAuthorized):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
