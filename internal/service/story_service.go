package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/madlib-comics/internal/domain"
	"github.com/phrazzld/madlib-comics/internal/generation"
)

// Progress step labels reported while a story is generated.
const (
	StepModerating = "Moderating answers"
	StepWriting    = "Writing script"
	StepDone       = "Done"
)

// PanelStep returns the step label for rendering panel i (1-based) of n.
func PanelStep(i, n int) string {
	return fmt.Sprintf("Rendering panel %d of %d", i, n)
}

// Moderator checks a Field Map against the content policy.
type Moderator interface {
	Moderate(fields domain.FieldMap) domain.ModerationResult
}

// NameTransformer rewrites the name-like answers of a Field Map.
type NameTransformer interface {
	ItalianizeNames(fields domain.FieldMap) domain.FieldMap
}

// ProgressFunc receives pipeline progress. It is called synchronously from
// the pipeline goroutine and must not block for long.
type ProgressFunc func(domain.Progress)

// Outcome is the result of a pipeline run. Story is nil when the answers
// were rejected by moderation.
type Outcome struct {
	Moderation domain.ModerationResult
	Story      *domain.StoryResult
}

// StoryService turns Field Maps into illustrated comics.
type StoryService interface {
	// Moderate checks fields without making any remote call.
	Moderate(fields domain.FieldMap) domain.ModerationResult

	// Generate moderates fields, writes the script and renders every panel
	// sequentially. A moderation rejection is returned as an Outcome, not an
	// error, and no remote call is made.
	Generate(ctx context.Context, fields domain.FieldMap, progress ProgressFunc) (*Outcome, error)
}

// storyServiceImpl implements the StoryService interface
type storyServiceImpl struct {
	moderator Moderator
	namer     NameTransformer
	generator generation.Generator
	logger    *slog.Logger
}

// NewStoryService creates a new StoryService.
// It returns an error if any of the required dependencies are nil.
func NewStoryService(
	moderator Moderator,
	namer NameTransformer,
	generator generation.Generator,
	logger *slog.Logger,
) (StoryService, error) {
	if moderator == nil {
		return nil, &StoryServiceError{Operation: "create_service", Message: "moderator cannot be nil"}
	}
	if namer == nil {
		return nil, &StoryServiceError{Operation: "create_service", Message: "namer cannot be nil"}
	}
	if generator == nil {
		return nil, &StoryServiceError{Operation: "create_service", Message: "generator cannot be nil"}
	}
	if logger == nil {
		return nil, &StoryServiceError{Operation: "create_service", Message: "logger cannot be nil"}
	}

	return &storyServiceImpl{
		moderator: moderator,
		namer:     namer,
		generator: generator,
		logger:    logger.With("component", "story_service"),
	}, nil
}

// Moderate implements StoryService.
func (s *storyServiceImpl) Moderate(fields domain.FieldMap) domain.ModerationResult {
	return s.moderator.Moderate(fields)
}

// Generate implements StoryService.
func (s *storyServiceImpl) Generate(
	ctx context.Context,
	fields domain.FieldMap,
	progress ProgressFunc,
) (*Outcome, error) {
	if progress == nil {
		progress = func(domain.Progress) {}
	}

	if err := fields.Validate(); err != nil {
		return nil, NewStoryServiceError("validate_fields", "invalid answers", err)
	}

	progress(domain.Progress{Step: StepModerating})
	moderation := s.moderator.Moderate(fields)
	if !moderation.IsValid() {
		s.logger.InfoContext(ctx, "answers rejected by moderation",
			"field", moderation.Field)
		return &Outcome{Moderation: moderation}, nil
	}

	named := s.namer.ItalianizeNames(fields)

	progress(domain.Progress{Step: StepWriting})
	story, err := s.generator.GenerateStory(ctx, named)
	if err != nil {
		return nil, NewStoryServiceError("generate_story", "script generation failed", err)
	}
	if story == nil {
		return nil, NewStoryServiceError("generate_story", "script generation failed", generation.ErrEmptyScript)
	}

	total := len(story.Panels)
	s.logger.InfoContext(ctx, "script ready, rendering panels",
		"panel_count", total)

	for i := range story.Panels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		progress(domain.Progress{Step: PanelStep(i+1, total), PanelsDone: i, PanelsTotal: total})

		url, err := s.generator.GenerateImage(ctx, story.Panels[i].VisualDescription)
		if err != nil {
			s.logger.ErrorContext(ctx, "panel rendering failed",
				"panel", i+1,
				"panel_count", total,
				"error", err)
			return nil, NewStoryServiceError("generate_image",
				fmt.Sprintf("panel %d of %d failed", i+1, total), err)
		}

		panel, err := story.Panels[i].WithImage(url)
		if err != nil {
			return nil, NewStoryServiceError("generate_image",
				fmt.Sprintf("panel %d of %d", i+1, total), err)
		}
		story.Panels[i] = panel

		s.logger.DebugContext(ctx, "panel rendered",
			"panel", i+1,
			"panel_count", total)
	}

	progress(domain.Progress{Step: StepDone, PanelsDone: total, PanelsTotal: total})

	return &Outcome{Moderation: moderation, Story: story}, nil
}

// IsRejected reports whether an outcome carries a moderation rejection.
func (o *Outcome) IsRejected() bool {
	return o != nil && !o.Moderation.IsValid()
}
