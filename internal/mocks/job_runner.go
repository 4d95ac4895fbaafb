package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/madlib-comics/internal/domain"
	"github.com/stretchr/testify/mock"
)

// TestifyMockJobRunner mocks the job runner used by the HTTP handlers.
type TestifyMockJobRunner struct {
	mock.Mock
}

// Submit is a mock implementation of Runner.Submit
func (m *TestifyMockJobRunner) Submit(ctx context.Context, fields domain.FieldMap) (*domain.StoryJob, error) {
	args := m.Called(ctx, fields)
	if job, ok := args.Get(0).(*domain.StoryJob); ok {
		return job, args.Error(1)
	}
	return nil, args.Error(1)
}

// Get is a mock implementation of Runner.Get
func (m *TestifyMockJobRunner) Get(ctx context.Context, id uuid.UUID) (*domain.StoryJob, error) {
	args := m.Called(ctx, id)
	if job, ok := args.Get(0).(*domain.StoryJob); ok {
		return job, args.Error(1)
	}
	return nil, args.Error(1)
}

// List is a mock implementation of Runner.List
func (m *TestifyMockJobRunner) List(ctx context.Context, limit int) ([]*domain.StoryJob, error) {
	args := m.Called(ctx, limit)
	if jobs, ok := args.Get(0).([]*domain.StoryJob); ok {
		return jobs, args.Error(1)
	}
	return nil, args.Error(1)
}

// Cancel is a mock implementation of Runner.Cancel
func (m *TestifyMockJobRunner) Cancel(ctx context.Context, id uuid.UUID) (*domain.StoryJob, error) {
	args := m.Called(ctx, id)
	if job, ok := args.Get(0).(*domain.StoryJob); ok {
		return job, args.Error(1)
	}
	return nil, args.Error(1)
}
