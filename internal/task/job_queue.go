package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Common errors returned by the JobQueue
var (
	ErrQueueClosed = errors.New("job queue is closed")
	ErrQueueFull   = errors.New("job queue is full")
)

// JobQueue is a bounded FIFO of job IDs waiting for the worker.
type JobQueue struct {
	mu     sync.Mutex
	jobs   chan uuid.UUID
	logger *slog.Logger
	closed bool
}

// NewJobQueue creates a new job queue with the specified buffer size
func NewJobQueue(size int, logger *slog.Logger) *JobQueue {
	if size <= 0 {
		size = 1
	}
	return &JobQueue{
		jobs:   make(chan uuid.UUID, size),
		logger: logger,
	}
}

// Enqueue adds a job to the queue without blocking.
// Returns ErrQueueFull or ErrQueueClosed when the job cannot be accepted.
func (q *JobQueue) Enqueue(id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- id:
		q.logger.Debug("job enqueued",
			"job_id", id,
			"queue_len", len(q.jobs),
			"queue_cap", cap(q.jobs))
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.jobs))
	}
}

// Close closes the queue, preventing further submission. Jobs already
// queued can still be received.
func (q *JobQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.jobs)
		q.logger.Info("job queue closed")
	}
}

// Len returns the number of queued jobs.
func (q *JobQueue) Len() int {
	return len(q.jobs)
}

// Channel returns a read-only channel for consuming job IDs
func (q *JobQueue) Channel() <-chan uuid.UUID {
	return q.jobs
}
