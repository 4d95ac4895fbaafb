package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/madlib-comics/internal/domain"
)

// DefaultListLimit is used by List when limit is not positive.
const DefaultListLimit = 20

// JobStore defines the interface for story job persistence.
type JobStore interface {
	// Create saves a new job.
	// Returns ErrJobExists if a job with the same ID is already stored.
	Create(ctx context.Context, job *domain.StoryJob) error

	// GetByID retrieves a job by its unique ID.
	// Returns ErrJobNotFound if the job does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.StoryJob, error)

	// Update replaces the stored state of an existing job.
	// Returns ErrJobNotFound if the job does not exist and ErrJobFinished if
	// the stored job already has a terminal status.
	Update(ctx context.Context, job *domain.StoryJob) error

	// List returns up to limit jobs, newest first.
	List(ctx context.Context, limit int) ([]*domain.StoryJob, error)

	// FailUnfinished marks every pending or processing job as failed with
	// the given reason and returns how many were changed. It is used at
	// startup to close out jobs orphaned by a previous process.
	FailUnfinished(ctx context.Context, reason string) (int, error)
}
