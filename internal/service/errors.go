package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/madlib-comics/internal/domain"
	"github.com/phrazzld/madlib-comics/internal/generation"
	"github.com/phrazzld/madlib-comics/internal/retry"
)

// StoryServiceError wraps errors from the story pipeline with the stage that failed.
type StoryServiceError struct {
	// Operation is the pipeline stage that failed (e.g., "generate_story", "generate_image")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for StoryServiceError.
func (e *StoryServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("story service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("story service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoryServiceError) Unwrap() error {
	return e.Err
}

// NewStoryServiceError creates a new StoryServiceError.
// Context errors are returned directly without wrapping.
func NewStoryServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &StoryServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// ClassifyError maps a pipeline error to the kind recorded on a failed job.
// Rate limiting is checked first so that an exhausted retry chain is reported
// as such even when the transport wrapped it.
func ClassifyError(err error) domain.ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domain.ErrorKindCancelled
	case retry.IsRateLimited(err):
		return domain.ErrorKindRateLimited
	case errors.Is(err, generation.ErrInvalidConfig):
		return domain.ErrorKindConfig
	case errors.Is(err, generation.ErrContentBlocked),
		errors.Is(err, generation.ErrEmptyScript),
		errors.Is(err, generation.ErrInvalidResponse),
		errors.Is(err, generation.ErrImageGenerationFailed):
		return domain.ErrorKindContent
	default:
		return domain.ErrorKindInternal
	}
}
