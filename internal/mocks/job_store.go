package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/madlib-comics/internal/domain"
	"github.com/phrazzld/madlib-comics/internal/store"
	"github.com/stretchr/testify/mock"
)

// Compile-time check that TestifyMockJobStore implements store.JobStore.
var _ store.JobStore = (*TestifyMockJobStore)(nil)

// TestifyMockJobStore is a mock of store.JobStore interface for use with testify/mock
type TestifyMockJobStore struct {
	mock.Mock
}

// Create is a mock implementation of store.JobStore.Create
func (m *TestifyMockJobStore) Create(ctx context.Context, job *domain.StoryJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// GetByID is a mock implementation of store.JobStore.GetByID
func (m *TestifyMockJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.StoryJob, error) {
	args := m.Called(ctx, id)
	if job, ok := args.Get(0).(*domain.StoryJob); ok {
		return job, args.Error(1)
	}
	return nil, args.Error(1)
}

// Update is a mock implementation of store.JobStore.Update
func (m *TestifyMockJobStore) Update(ctx context.Context, job *domain.StoryJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// List is a mock implementation of store.JobStore.List
func (m *TestifyMockJobStore) List(ctx context.Context, limit int) ([]*domain.StoryJob, error) {
	args := m.Called(ctx, limit)
	if jobs, ok := args.Get(0).([]*domain.StoryJob); ok {
		return jobs, args.Error(1)
	}
	return nil, args.Error(1)
}

// FailUnfinished is a mock implementation of store.JobStore.FailUnfinished
func (m *TestifyMockJobStore) FailUnfinished(ctx context.Context, reason string) (int, error) {
	args := m.Called(ctx, reason)
	return args.Int(0), args.Error(1)
}
