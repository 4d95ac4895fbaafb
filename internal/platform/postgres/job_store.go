package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/madlib-comics/internal/domain"
	"github.com/phrazzld/madlib-comics/internal/platform/logger"
	"github.com/phrazzld/madlib-comics/internal/store"
)

const jobColumns = `id, status, fields, progress_step, panels_done, panels_total,
	result, rejected_field, error_kind, error, created_at, updated_at`

// PostgresJobStore implements the store.JobStore interface
// using a PostgreSQL database as the storage backend.
type PostgresJobStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Ensure PostgresJobStore implements store.JobStore interface
var _ store.JobStore = (*PostgresJobStore)(nil)

// NewPostgresJobStore creates a new PostgreSQL implementation of the JobStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresJobStore(db *sql.DB, logger *slog.Logger) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

// Create implements store.JobStore.Create
func (s *PostgresJobStore) Create(ctx context.Context, job *domain.StoryJob) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if job == nil {
		return store.NewStoreError("story_job", "create", "job is nil", store.ErrInvalidEntity)
	}
	if err := job.Fields.Validate(); err != nil {
		return store.NewStoreError("story_job", "create", "invalid fields",
			errors.Join(store.ErrInvalidEntity, err))
	}

	args, err := jobArgs(job)
	if err != nil {
		return store.NewStoreError("story_job", "create", "encode job", err)
	}

	query := `
		INSERT INTO story_jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if IsUniqueViolation(err) {
			return store.ErrJobExists
		}
		log.Error("failed to create story job",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID.String()))
		return store.NewStoreError("story_job", "create", "insert failed", MapError(err))
	}

	log.Debug("story job created", slog.String("job_id", job.ID.String()))
	return nil
}

// GetByID implements store.JobStore.GetByID
func (s *PostgresJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.StoryJob, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + jobColumns + ` FROM story_jobs WHERE id = $1`
	job, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		log.Error("failed to get story job",
			slog.String("error", err.Error()),
			slog.String("job_id", id.String()))
		return nil, store.NewStoreError("story_job", "get", "query failed", MapError(err))
	}
	return job, nil
}

// Update implements store.JobStore.Update
// The current row is locked and checked inside a transaction so that a job
// which reached a terminal status is never overwritten by a late writer.
func (s *PostgresJobStore) Update(ctx context.Context, job *domain.StoryJob) error {
	if job == nil {
		return store.NewStoreError("story_job", "update", "job is nil", store.ErrInvalidEntity)
	}

	args, err := jobArgs(job)
	if err != nil {
		return store.NewStoreError("story_job", "update", "encode job", err)
	}

	// every column except created_at
	updateArgs := append(args[:10:10], args[11])

	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		status, err := lockJobStatus(ctx, tx, job.ID)
		if err != nil {
			return err
		}
		if status.IsTerminal() {
			return store.ErrJobFinished
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE story_jobs
			SET status = $2, fields = $3, progress_step = $4, panels_done = $5,
				panels_total = $6, result = $7, rejected_field = $8, error_kind = $9,
				error = $10, updated_at = $11
			WHERE id = $1
		`, updateArgs...)
		if err != nil {
			return store.NewStoreError("story_job", "update", "update failed", MapError(err))
		}
		if err := CheckRowsAffected(result, "story job"); err != nil {
			return store.ErrJobNotFound
		}
		return nil
	})
}

// lockJobStatus reads the status of a job and locks its row until q's
// transaction ends.
func lockJobStatus(ctx context.Context, q store.DBTX, id uuid.UUID) (domain.JobStatus, error) {
	var status string
	err := q.QueryRowContext(ctx,
		`SELECT status FROM story_jobs WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", store.ErrJobNotFound
		}
		return "", store.NewStoreError("story_job", "update", "lock failed", MapError(err))
	}
	return domain.JobStatus(status), nil
}

// List implements store.JobStore.List
func (s *PostgresJobStore) List(ctx context.Context, limit int) ([]*domain.StoryJob, error) {
	if limit <= 0 {
		limit = store.DefaultListLimit
	}

	query := `SELECT ` + jobColumns + ` FROM story_jobs ORDER BY created_at DESC LIMIT $1`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, store.NewStoreError("story_job", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	jobs := make([]*domain.StoryJob, 0, limit)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, store.NewStoreError("story_job", "list", "scan failed", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("story_job", "list", "iteration failed", err)
	}
	return jobs, nil
}

// FailUnfinished implements store.JobStore.FailUnfinished
func (s *PostgresJobStore) FailUnfinished(ctx context.Context, reason string) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE story_jobs
		SET status = $1, error_kind = $2, error = $3, updated_at = NOW()
		WHERE status IN ($4, $5)
	`, domain.JobStatusFailed, domain.ErrorKindInternal, reason,
		domain.JobStatusPending, domain.JobStatusProcessing)
	if err != nil {
		return 0, store.NewStoreError("story_job", "fail_unfinished", "update failed", MapError(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		log.Warn("marked unfinished story jobs as failed",
			slog.Int64("count", n),
			slog.String("reason", reason))
	}
	return int(n), nil
}

// jobArgs returns the column values of job in jobColumns order.
func jobArgs(job *domain.StoryJob) ([]any, error) {
	fields, err := json.Marshal(job.Fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}

	var result any
	if job.Result != nil {
		b, err := json.Marshal(job.Result)
		if err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
		result = string(b)
	}

	return []any{
		job.ID,
		string(job.Status),
		string(fields),
		job.Progress.Step,
		job.Progress.PanelsDone,
		job.Progress.PanelsTotal,
		result,
		job.RejectedField,
		string(job.ErrorKind),
		job.Error,
		job.CreatedAt,
		job.UpdatedAt,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.StoryJob, error) {
	var (
		job       domain.StoryJob
		status    string
		errorKind string
		fields    []byte
		result    []byte
	)

	err := row.Scan(
		&job.ID,
		&status,
		&fields,
		&job.Progress.Step,
		&job.Progress.PanelsDone,
		&job.Progress.PanelsTotal,
		&result,
		&job.RejectedField,
		&errorKind,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Status = domain.JobStatus(status)
	job.ErrorKind = domain.ErrorKind(errorKind)

	if err := json.Unmarshal(fields, &job.Fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	if len(result) > 0 {
		job.Result = &domain.StoryResult{}
		if err := json.Unmarshal(result, job.Result); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
	}
	return &job, nil
}
