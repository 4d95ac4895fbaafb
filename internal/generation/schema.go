package generation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/madlib-comics/internal/domain"
)

var validate = validator.New()

// storyPayload mirrors the structured-output schema sent with the script call.
type storyPayload struct {
	FullScript string         `json:"fullScript" validate:"required"`
	Panels     []panelPayload `json:"panels"     validate:"required,dive"`
}

type panelPayload struct {
	Title             string `json:"title"             validate:"required"`
	VisualDescription string `json:"visualDescription" validate:"required"`
	Caption           string `json:"caption"           validate:"required"`
}

// ParseStory decodes the text of a script response into a StoryResult.
//
// Markdown code fences around the JSON are tolerated. Unknown fields, missing
// required strings or a missing panels array fail with ErrInvalidResponse;
// blank text fails with ErrEmptyScript. Panel count, caption length and
// language are not checked.
func ParseStory(text string) (*domain.StoryResult, error) {
	text = stripCodeFence(text)
	if text == "" {
		return nil, ErrEmptyScript
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.DisallowUnknownFields()

	var payload storyPayload
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", ErrInvalidResponse, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON object", ErrInvalidResponse)
	}

	if err := validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("%w: response does not match story schema: %v", ErrInvalidResponse, err)
	}

	story := &domain.StoryResult{
		FullScript: payload.FullScript,
		Panels:     make([]domain.Panel, len(payload.Panels)),
	}
	for i, p := range payload.Panels {
		story.Panels[i] = domain.Panel{
			Title:             p.Title,
			VisualDescription: p.VisualDescription,
			Caption:           p.Caption,
		}
	}
	return story, nil
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}
