package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/madlib-comics/internal/api/shared"
	"github.com/phrazzld/madlib-comics/internal/domain"
	"github.com/phrazzld/madlib-comics/internal/store"
)

// answerLengthTag bounds the length of each answer.
var answerLengthTag = fmt.Sprintf("max=%d", MaxAnswerLength)

// getPathUUID extracts and parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", ErrInvalidID, paramName)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s has invalid format", ErrInvalidID, paramName)
	}
	return id, nil
}

// decodeFields reads a FieldsRequest and checks that it holds at least one
// answer, that keys are unique and non-empty, and that every answer is
// non-blank and at most MaxAnswerLength characters.
func decodeFields(r *http.Request) (domain.FieldMap, error) {
	var req FieldsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}
	if len(req.Fields) == 0 {
		return nil, fmt.Errorf("%w: at least one answer is required", domain.ErrValidation)
	}
	if err := req.Fields.Validate(); err != nil {
		return nil, err
	}
	for _, f := range req.Fields {
		if err := shared.ValidateVar(strings.TrimSpace(f.Value), "required"); err != nil {
			return nil, &FieldError{Field: f.Key, Reason: "is required"}
		}
		if err := shared.ValidateVar(f.Value, answerLengthTag); err != nil {
			return nil, &FieldError{
				Field:  f.Key,
				Reason: fmt.Sprintf("must be at most %d characters", MaxAnswerLength),
			}
		}
	}
	return req.Fields, nil
}

// parseLimit reads the optional limit query parameter.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return store.DefaultListLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", domain.ErrValidation)
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, nil
}

const maxListLimit = 100
