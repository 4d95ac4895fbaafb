package store

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/madlib-comics/internal/domain"
)

// MemoryJobStore keeps story jobs in process memory. Jobs are copied on the
// way in and out so callers never share state with the store.
type MemoryJobStore struct {
	mu    sync.RWMutex
	jobs  map[uuid.UUID]*domain.StoryJob
	order []uuid.UUID
}

// Compile-time check that MemoryJobStore implements JobStore.
var _ JobStore = (*MemoryJobStore)(nil)

// NewMemoryJobStore creates an empty in-memory job store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[uuid.UUID]*domain.StoryJob)}
}

// Create implements JobStore.
func (s *MemoryJobStore) Create(ctx context.Context, job *domain.StoryJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if job == nil {
		return NewStoreError("story_job", "create", "job is nil", ErrInvalidEntity)
	}
	if err := job.Fields.Validate(); err != nil {
		return NewStoreError("story_job", "create", "invalid fields",
			errors.Join(ErrInvalidEntity, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return ErrJobExists
	}
	s.jobs[job.ID] = job.Clone()
	s.order = append(s.order, job.ID)
	return nil
}

// GetByID implements JobStore.
func (s *MemoryJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.StoryJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.Clone(), nil
}

// Update implements JobStore.
func (s *MemoryJobStore) Update(ctx context.Context, job *domain.StoryJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if job == nil {
		return NewStoreError("story_job", "update", "job is nil", ErrInvalidEntity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.jobs[job.ID]
	if !ok {
		return ErrJobNotFound
	}
	if current.Status.IsTerminal() {
		return ErrJobFinished
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

// List implements JobStore.
func (s *MemoryJobStore) List(ctx context.Context, limit int) ([]*domain.StoryJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.StoryJob, 0, min(limit, len(s.order)))
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.jobs[s.order[i]].Clone())
	}
	return out, nil
}

// FailUnfinished implements JobStore.
func (s *MemoryJobStore) FailUnfinished(ctx context.Context, reason string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, job := range s.jobs {
		if job.Status.IsTerminal() {
			continue
		}
		job.Fail(domain.ErrorKindInternal, errors.New(reason))
		count++
	}
	return count, nil
}
