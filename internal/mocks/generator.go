package mocks

import (
	"context"
	"encoding/base64"
	"strconv"
	"sync"

	"github.com/phrazzld/madlib-comics/internal/domain"
	"github.com/phrazzld/madlib-comics/internal/generation"
)

// Compile-time check that MockGenerator implements generation.Generator.
var _ generation.Generator = (*MockGenerator)(nil)

// MockGenerator implements generation.Generator for testing
type MockGenerator struct {
	// GenerateStoryFn allows test cases to mock the GenerateStory behavior
	GenerateStoryFn func(ctx context.Context, fields domain.FieldMap) (*domain.StoryResult, error)

	// GenerateImageFn allows test cases to mock the GenerateImage behavior
	GenerateImageFn func(ctx context.Context, description string) (string, error)

	// Default response values
	Story    *domain.StoryResult
	StoryErr error
	ImageErr error

	mu sync.Mutex

	// StoryCalls records the Field Maps passed to GenerateStory
	StoryCalls []domain.FieldMap

	// ImageCalls records the descriptions passed to GenerateImage, in call order
	ImageCalls []string
}

// GenerateStory implements the generation.StoryGenerator interface.
// Without a GenerateStoryFn it returns a copy of Story, or StoryErr.
func (m *MockGenerator) GenerateStory(ctx context.Context, fields domain.FieldMap) (*domain.StoryResult, error) {
	m.mu.Lock()
	m.StoryCalls = append(m.StoryCalls, fields)
	m.mu.Unlock()

	if m.GenerateStoryFn != nil {
		return m.GenerateStoryFn(ctx, fields)
	}
	if m.StoryErr != nil {
		return nil, m.StoryErr
	}
	return m.Story.Clone(), nil
}

// GenerateImage implements the generation.ImageGenerator interface.
// Without a GenerateImageFn it returns ImageErr, or FakeImageURL(description).
func (m *MockGenerator) GenerateImage(ctx context.Context, description string) (string, error) {
	m.mu.Lock()
	m.ImageCalls = append(m.ImageCalls, description)
	m.mu.Unlock()

	if m.GenerateImageFn != nil {
		return m.GenerateImageFn(ctx, description)
	}
	if m.ImageErr != nil {
		return "", m.ImageErr
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return FakeImageURL(description), nil
}

// StoryCallCount returns how many times GenerateStory was called.
func (m *MockGenerator) StoryCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.StoryCalls)
}

// ImageCallCount returns how many times GenerateImage was called.
func (m *MockGenerator) ImageCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ImageCalls)
}

// TotalCalls returns the number of remote calls made through the mock.
func (m *MockGenerator) TotalCalls() int {
	return m.StoryCallCount() + m.ImageCallCount()
}

// FakeImageURL returns a deterministic PNG data URI for description.
func FakeImageURL(description string) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte(description))
}

// NewMockGeneratorWithStory creates a MockGenerator that returns the specified story
func NewMockGeneratorWithStory(story *domain.StoryResult) *MockGenerator {
	return &MockGenerator{Story: story}
}

// NewMockGeneratorWithError creates a MockGenerator whose script call fails with err
func NewMockGeneratorWithError(err error) *MockGenerator {
	return &MockGenerator{StoryErr: err}
}

// SampleStory returns a story with n panels whose descriptions are "scene 1" to "scene n".
func SampleStory(n int) *domain.StoryResult {
	story := &domain.StoryResult{
		FullScript: "Pepperoni sneezed a pizza into orbit and the whole town cheered.",
		Panels:     make([]domain.Panel, n),
	}
	for i := range story.Panels {
		num := strconv.Itoa(i + 1)
		story.Panels[i] = domain.Panel{
			Title:             "Panel " + num,
			VisualDescription: "scene " + num,
			Caption:           "Mamma mia " + num,
		}
	}
	return story
}
