package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/phrazzld/madlib-comics/internal/domain"
	"github.com/phrazzld/madlib-comics/internal/store"
	"github.com/phrazzld/madlib-comics/internal/task"
)

// ErrInvalidID is returned when a path parameter is not a valid job ID.
var ErrInvalidID = errors.New("invalid id")

// FieldError reports an answer that failed request validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q %s", e.Field, e.Reason)
}

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	var fieldErr *FieldError
	switch {
	case errors.As(err, &fieldErr),
		errors.Is(err, ErrInvalidID),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrDuplicateField),
		errors.Is(err, domain.ErrEmptyFieldKey):
		return http.StatusBadRequest

	case store.IsNotFoundError(err):
		return http.StatusNotFound

	case errors.Is(err, task.ErrJobFinished):
		return http.StatusConflict

	case errors.Is(err, task.ErrQueueFull):
		return http.StatusTooManyRequests

	case errors.Is(err, task.ErrQueueClosed):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err that never
// includes internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var fieldErr *FieldError
	switch {
	case errors.As(err, &fieldErr):
		return fmt.Sprintf("Answer %q %s", fieldErr.Field, fieldErr.Reason)
	case errors.Is(err, ErrInvalidID):
		return "Invalid story id"
	case errors.Is(err, domain.ErrDuplicateField):
		return "Each answer may appear only once"
	case errors.Is(err, domain.ErrEmptyFieldKey):
		return "Answer keys cannot be empty"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidFormat):
		return "Invalid request format"
	case store.IsNotFoundError(err):
		return "Story not found"
	case errors.Is(err, task.ErrJobFinished):
		return "Story has already finished"
	case errors.Is(err, task.ErrQueueFull):
		return "Too many stories in progress, try again shortly"
	case errors.Is(err, task.ErrQueueClosed):
		return "Server is shutting down"
	default:
		return "An unexpected error occurred"
	}
}

// fieldOf returns the field named by a FieldError, if any.
func fieldOf(err error) string {
	var fieldErr *FieldError
	if errors.As(err, &fieldErr) {
		return fieldErr.Field
	}
	return ""
}
