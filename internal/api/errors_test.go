package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/phrazzld/madlib-comics/internal/domain"
	"github.com/phrazzld/madlib-comics/internal/store"
	"github.com/phrazzld/madlib-comics/internal/task"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "field error",
			err:         &FieldError{Field: "noun", Reason: "is required"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: `Answer "noun" is required`,
		},
		{
			name:        "invalid id",
			err:         fmt.Errorf("%w: id has invalid format", ErrInvalidID),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid story id",
		},
		{
			name:        "duplicate field",
			err:         fmt.Errorf("%w: %q", domain.ErrDuplicateField, "name"),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Each answer may appear only once",
		},
		{
			name:        "not found",
			err:         store.ErrJobNotFound,
			wantStatus:  http.StatusNotFound,
			wantMessage: "Story not found",
		},
		{
			name:        "finished",
			err:         task.ErrJobFinished,
			wantStatus:  http.StatusConflict,
			wantMessage: "Story has already finished",
		},
		{
			name:        "queue full",
			err:         fmt.Errorf("submit: %w", task.ErrQueueFull),
			wantStatus:  http.StatusTooManyRequests,
			wantMessage: "Too many stories in progress, try again shortly",
		},
		{
			name:        "unknown",
			err:         errors.New("connection refused at /var/run/postgres.sock"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.wantStatus, MapErrorToStatusCode(tc.err))
			assert.Equal(t, tc.wantMessage, GetSafeErrorMessage(tc.err))
		})
	}
}

func TestGetSafeErrorMessage_Nil(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
}
