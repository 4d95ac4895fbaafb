package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/madlib-comics/internal/domain"
	"github.com/phrazzld/madlib-comics/internal/platform/logger"
	"github.com/phrazzld/madlib-comics/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columnNames = []string{
	"id", "status", "fields", "progress_step", "panels_done", "panels_total",
	"result", "rejected_field", "error_kind", "error", "created_at", "updated_at",
}

func newMockStore(t *testing.T) (*PostgresJobStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log, _ := logger.NewTestLogger()
	return NewPostgresJobStore(db, log), mock
}

func testJob(t *testing.T) *domain.StoryJob {
	t.Helper()
	job, err := domain.NewStoryJob(domain.NewFieldMap("Zebra", "Pizza", "Animal", "Capybara"))
	require.NoError(t, err)
	return job
}

func TestPostgresJobStore_Create(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	job := testJob(t)

	mock.ExpectExec(`INSERT INTO story_jobs`).
		WithArgs(job.ID, "pending", `{"Zebra":"Pizza","Animal":"Capybara"}`,
			"", 0, 0, nil, "", "", "", job.CreatedAt, job.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Create(context.Background(), job))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresJobStore_CreateDuplicate(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO story_jobs`).
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

	err := s.Create(context.Background(), testJob(t))
	assert.ErrorIs(t, err, store.ErrJobExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresJobStore_GetByID(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	job := testJob(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(columnNames).AddRow(
		job.ID.String(), "completed", []byte(`{"Zebra":"Pizza","Animal":"Capybara"}`),
		"Done", 1, 1,
		[]byte(`{"fullScript":"s","panels":[{"title":"t","visualDescription":"v","caption":"c","imageUrl":"data:image/png;base64,AA=="}]}`),
		"", "", "", now, now,
	)
	mock.ExpectQuery(`SELECT .+ FROM story_jobs WHERE id = \$1`).
		WithArgs(job.ID).
		WillReturnRows(rows)

	got, err := s.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, domain.JobStatusCompleted, got.Status)
	assert.Equal(t, []string{"Zebra", "Animal"}, got.Fields.Keys())
	require.NotNil(t, got.Result)
	require.Len(t, got.Result.Panels, 1)
	assert.True(t, got.Result.Panels[0].HasImage())
	assert.Equal(t, domain.Progress{Step: "Done", PanelsDone: 1, PanelsTotal: 1}, got.Progress)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresJobStore_GetByIDNotFound(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	job := testJob(t)
	mock.ExpectQuery(`SELECT .+ FROM story_jobs`).WillReturnError(sql.ErrNoRows)

	_, err := s.GetByID(context.Background(), job.ID)
	assert.ErrorIs(t, err, store.ErrJobNotFound)
}

func TestPostgresJobStore_Update(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "Updates unfinished job",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT status FROM story_jobs WHERE id = \$1 FOR UPDATE`).
					WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("processing"))
				mock.ExpectExec(`UPDATE story_jobs`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "Refuses terminal job",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT status FROM story_jobs`).
					WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("cancelled"))
				mock.ExpectRollback()
			},
			wantErr: store.ErrJobFinished,
		},
		{
			name: "Missing job",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT status FROM story_jobs`).
					WillReturnError(sql.ErrNoRows)
				mock.ExpectRollback()
			},
			wantErr: store.ErrJobNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, mock := newMockStore(t)
			job := testJob(t)
			require.NoError(t, job.UpdateStatus(domain.JobStatusProcessing))
			tc.setup(mock)

			err := s.Update(context.Background(), job)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresJobStore_List(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	a, b := testJob(t), testJob(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(columnNames).
		AddRow(b.ID.String(), "pending", []byte(`{"A":"1"}`), "", 0, 0, nil, "", "", "", now, now).
		AddRow(a.ID.String(), "rejected", []byte(`{"A":"kill"}`), "", 0, 0, nil, "A", "", "", now, now)
	mock.ExpectQuery(`SELECT .+ FROM story_jobs ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(store.DefaultListLimit).
		WillReturnRows(rows)

	jobs, err := s.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, b.ID, jobs[0].ID)
	assert.Equal(t, "A", jobs[1].RejectedField)
	assert.Nil(t, jobs[0].Result)
}

func TestPostgresJobStore_FailUnfinished(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE story_jobs`).
		WithArgs(domain.JobStatusFailed, domain.ErrorKindInternal, "interrupted by restart",
			domain.JobStatusPending, domain.JobStatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := s.FailUnfinished(context.Background(), "interrupted by restart")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"No rows", sql.ErrNoRows, store.ErrNotFound},
		{"Unique", &pgconn.PgError{Code: uniqueViolationCode}, store.ErrDuplicate},
		{"Check", &pgconn.PgError{Code: checkViolationCode, ConstraintName: "story_jobs_status_check"}, store.ErrInvalidEntity},
		{"Not null", &pgconn.PgError{Code: notNullViolationCode, ColumnName: "fields"}, store.ErrInvalidEntity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, MapError(tc.err), tc.want)
		})
	}

	assert.NoError(t, MapError(nil))
	other := errors.New("other")
	assert.Equal(t, other, MapError(other))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckRowsAffected(sqlmock.NewResult(0, 1), "story job"))
	assert.ErrorIs(t, CheckRowsAffected(sqlmock.NewResult(0, 0), "story job"), store.ErrNotFound)
	assert.Error(t, CheckRowsAffected(nil, "story job"))
}

func TestMigrationFiles(t *testing.T) {
	t.Parallel()

	files, err := MigrationFiles()
	require.NoError(t, err)
	assert.Contains(t, files, "00001_create_story_jobs.sql")
}
