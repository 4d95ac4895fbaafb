package api

import (
	"github.com/phrazzld/madlib-comics/internal/domain"
)

// MaxAnswerLength is the longest answer, in characters, the API accepts.
const MaxAnswerLength = 200

// FieldsRequest is the payload of the moderation and story endpoints.
// Fields is a JSON object whose key order is preserved.
type FieldsRequest struct {
	Fields domain.FieldMap `json:"fields"`
}

// ModerateResponse is the result of a synchronous moderation check.
type ModerateResponse struct {
	Valid bool   `json:"valid"`
	Field string `json:"field,omitempty"`
}

// JobResponse wraps a single story job.
type JobResponse struct {
	Job *domain.StoryJob `json:"job"`
}

// JobListResponse wraps a page of story jobs, newest first.
type JobListResponse struct {
	Jobs []*domain.StoryJob `json:"jobs"`
}

func moderationToResponse(result domain.ModerationResult) ModerateResponse {
	return ModerateResponse{
		Valid: result.Status == domain.ModerationValid,
		Field: result.Field,
	}
}
