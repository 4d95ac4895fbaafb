package generation

import (
	"context"

	"github.com/phrazzld/madlib-comics/internal/domain"
)

// StoryGenerator writes a comic script from a Field Map.
type StoryGenerator interface {
	// GenerateStory returns the full script and its panels, in reading order,
	// with no panel images set.
	GenerateStory(ctx context.Context, fields domain.FieldMap) (*domain.StoryResult, error)
}

// ImageGenerator paints a single panel.
type ImageGenerator interface {
	// GenerateImage returns a data URI ("data:<mime>;base64,<data>") for an
	// image matching the visual description.
	GenerateImage(ctx context.Context, description string) (string, error)
}

// Generator is implemented by adapters that provide both calls.
type Generator interface {
	StoryGenerator
	ImageGenerator
}
