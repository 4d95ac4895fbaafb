package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/madlib-comics/internal/domain"
	"github.com/phrazzld/madlib-comics/internal/redact"
	"github.com/phrazzld/madlib-comics/internal/service"
	"github.com/phrazzld/madlib-comics/internal/store"
)

// ErrJobFinished is returned when cancelling a job that already reached a
// terminal status.
var ErrJobFinished = store.ErrJobFinished

// ErrRunnerStarted is returned by Start when the runner is already running.
var ErrRunnerStarted = errors.New("runner already started")

// InterruptedReason is recorded on jobs left unfinished by a previous process.
const InterruptedReason = "interrupted by server restart"

// persistTimeout bounds every store write made on behalf of a job.
const persistTimeout = 5 * time.Second

// maxErrorLength bounds the error text stored on a failed job.
const maxErrorLength = 500

// Pipeline runs the story generation pipeline for one job.
type Pipeline interface {
	Generate(ctx context.Context, fields domain.FieldMap, progress service.ProgressFunc) (*service.Outcome, error)
}

// RunnerConfig holds configuration for the runner
type RunnerConfig struct {
	// QueueSize determines the buffer size for the in-memory job queue
	QueueSize int

	// JobTimeout bounds a single pipeline run. Zero means no limit.
	JobTimeout time.Duration
}

// Runner executes story jobs in the background with exactly one worker, so
// at most one pipeline is in flight at any time. Job state lives in the
// store; the runner only tracks the cancel function of the running job.
type Runner struct {
	store    store.JobStore
	pipeline Pipeline
	queue    *JobQueue
	config   RunnerConfig
	logger   *slog.Logger
	classify func(error) domain.ErrorKind

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu serialises cancellation against the worker picking up a job
	mu       sync.Mutex
	running  map[uuid.UUID]context.CancelFunc
	started  bool
	stopOnce sync.Once
}

// NewRunner creates a Runner. Call Start before submitting jobs.
func NewRunner(jobs store.JobStore, pipeline Pipeline, config RunnerConfig, logger *slog.Logger) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	logger = logger.With("component", "task_runner")

	return &Runner{
		store:    jobs,
		pipeline: pipeline,
		queue:    NewJobQueue(config.QueueSize, logger),
		config:   config,
		logger:   logger,
		classify: service.ClassifyError,
		ctx:      ctx,
		cancel:   cancel,
		running:  make(map[uuid.UUID]context.CancelFunc),
	}
}

// Start closes out jobs left unfinished by a previous process and starts
// the worker.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return ErrRunnerStarted
	}

	n, err := r.store.FailUnfinished(ctx, InterruptedReason)
	if err != nil {
		return fmt.Errorf("failed to recover unfinished jobs: %w", err)
	}
	if n > 0 {
		r.logger.Warn("closed out jobs interrupted by a previous run", "count", n)
	}

	r.started = true
	r.wg.Add(1)
	go r.worker()

	r.logger.Info("task runner started",
		"queue_size", r.config.QueueSize,
		"job_timeout", r.config.JobTimeout)
	return nil
}

// Stop cancels the running job, stops the worker and waits for it to exit.
// Jobs still queued stay pending in the store. Stop is idempotent.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		r.cancel()
		r.wg.Wait()
		r.queue.Close()
		r.logger.Info("task runner stopped")
	})
}

// Submit stores a new pending job for fields and queues it.
// Returns ErrQueueFull when the queue is at capacity; the job is then
// recorded as failed so it never lingers as pending.
func (r *Runner) Submit(ctx context.Context, fields domain.FieldMap) (*domain.StoryJob, error) {
	job, err := domain.NewStoryJob(fields)
	if err != nil {
		return nil, err
	}

	if err := r.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	if err := r.queue.Enqueue(job.ID); err != nil {
		job.Fail(domain.ErrorKindInternal, err)
		if upErr := r.persist(job); upErr != nil {
			r.logger.ErrorContext(ctx, "failed to record rejected submission",
				"job_id", job.ID,
				"error", upErr)
		}
		return nil, err
	}

	r.logger.InfoContext(ctx, "story job submitted",
		"job_id", job.ID,
		"field_count", len(fields),
		"queue_len", r.queue.Len())
	return job, nil
}

// Get returns the current state of a job.
func (r *Runner) Get(ctx context.Context, id uuid.UUID) (*domain.StoryJob, error) {
	return r.store.GetByID(ctx, id)
}

// List returns recent jobs, newest first.
func (r *Runner) List(ctx context.Context, limit int) ([]*domain.StoryJob, error) {
	return r.store.List(ctx, limit)
}

// Cancel stops a job. A running job has its context cancelled and is
// recorded as cancelled by the worker once the pipeline returns; a pending
// job is marked cancelled immediately and skipped by the worker. Returns
// ErrJobFinished when the job already reached a terminal status.
func (r *Runner) Cancel(ctx context.Context, id uuid.UUID) (*domain.StoryJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, err := r.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if job.Status.IsTerminal() {
		return nil, ErrJobFinished
	}

	if cancel, ok := r.running[id]; ok {
		cancel()
		r.logger.InfoContext(ctx, "cancellation requested for running job", "job_id", id)
		return job, nil
	}

	job.Fail(domain.ErrorKindCancelled, context.Canceled)
	if err := r.store.Update(ctx, job); err != nil {
		return nil, err
	}
	r.logger.InfoContext(ctx, "pending job cancelled", "job_id", id)
	return job, nil
}

func (r *Runner) worker() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case id, ok := <-r.queue.Channel():
			if !ok {
				return
			}
			r.process(id)
		}
	}
}

// process runs one job to a terminal status.
func (r *Runner) process(id uuid.UUID) {
	if r.ctx.Err() != nil {
		return
	}
	log := r.logger.With("job_id", id)

	job, jobCtx, done, ok := r.begin(id, log)
	if !ok {
		return
	}
	defer done()

	start := time.Now()
	outcome, err := r.pipeline.Generate(jobCtx, job.Fields, func(p domain.Progress) {
		job.SetProgress(p)
		if err := r.persist(job); err != nil {
			log.Warn("failed to record job progress", "step", p.Step, "error", err)
		}
	})

	switch {
	case err != nil:
		kind := r.classify(err)
		job.Fail(kind, errors.New(redact.Truncate(err.Error(), maxErrorLength)))
		if kind == domain.ErrorKindCancelled {
			log.Info("story job cancelled", "duration", time.Since(start))
		} else {
			log.Error("story job failed",
				"error_kind", kind,
				"error", redact.Error(err),
				"duration", time.Since(start))
		}
	case outcome.IsRejected():
		job.Reject(outcome.Moderation.Field)
		log.Info("story job rejected by moderation", "field", outcome.Moderation.Field)
	default:
		job.Complete(outcome.Story)
		log.Info("story job completed",
			"panel_count", len(outcome.Story.Panels),
			"duration", time.Since(start))
	}

	if err := r.persist(job); err != nil {
		log.Error("failed to record job result", "status", job.Status, "error", err)
	}
}

// begin marks a queued job as processing and registers its cancel function.
// It reports false when the job should be skipped.
func (r *Runner) begin(id uuid.UUID, log *slog.Logger) (*domain.StoryJob, context.Context, func(), bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, err := r.store.GetByID(r.ctx, id)
	if err != nil {
		log.Error("failed to load queued job", "error", err)
		return nil, nil, nil, false
	}
	if job.Status.IsTerminal() {
		log.Debug("skipping finished job", "status", job.Status)
		return nil, nil, nil, false
	}

	if err := job.UpdateStatus(domain.JobStatusProcessing); err != nil {
		log.Error("failed to mark job processing", "error", err)
		return nil, nil, nil, false
	}
	if err := r.store.Update(r.ctx, job); err != nil {
		log.Error("failed to mark job processing", "error", err)
		return nil, nil, nil, false
	}

	var (
		jobCtx context.Context
		cancel context.CancelFunc
	)
	if r.config.JobTimeout > 0 {
		jobCtx, cancel = context.WithTimeout(r.ctx, r.config.JobTimeout)
	} else {
		jobCtx, cancel = context.WithCancel(r.ctx)
	}
	r.running[id] = cancel

	done := func() {
		r.mu.Lock()
		delete(r.running, id)
		r.mu.Unlock()
		cancel()
	}
	return job, jobCtx, done, true
}

// persist writes job with a context detached from job cancellation, so the
// terminal state of a cancelled job is still recorded.
func (r *Runner) persist(job *domain.StoryJob) error {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	return r.store.Update(ctx, job)
}
