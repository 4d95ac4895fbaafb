package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the processing state of a story job.
type JobStatus string

// Possible job status values
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusRejected   JobStatus = "rejected"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are possible.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusRejected, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

func isValidJobStatus(s JobStatus) bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted,
		JobStatusRejected, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// ErrorKind classifies why a job failed, so callers can tell rate limiting
// apart from other failures without parsing messages.
type ErrorKind string

// Error kinds recorded on failed jobs.
const (
	ErrorKindRateLimited ErrorKind = "rate_limited"
	ErrorKindConfig      ErrorKind = "config"
	ErrorKindContent     ErrorKind = "content"
	ErrorKindCancelled   ErrorKind = "cancelled"
	ErrorKindInternal    ErrorKind = "internal"
)

// Progress describes how far a pipeline run has got.
type Progress struct {
	Step        string `json:"step"`
	PanelsDone  int    `json:"panelsDone"`
	PanelsTotal int    `json:"panelsTotal"`
}

// StoryJob tracks one run of the generation pipeline on behalf of a caller.
type StoryJob struct {
	ID            uuid.UUID    `json:"id"`
	Status        JobStatus    `json:"status"`
	Fields        FieldMap     `json:"fields"`
	Progress      Progress     `json:"progress"`
	Result        *StoryResult `json:"result,omitempty"`
	RejectedField string       `json:"rejectedField,omitempty"`
	ErrorKind     ErrorKind    `json:"errorKind,omitempty"`
	Error         string       `json:"error,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// NewStoryJob creates a pending job for the given fields.
func NewStoryJob(fields FieldMap) (*StoryJob, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &StoryJob{
		ID:        uuid.New(),
		Status:    JobStatusPending,
		Fields:    fields,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// UpdateStatus moves the job to status and touches UpdatedAt.
func (j *StoryJob) UpdateStatus(status JobStatus) error {
	if !isValidJobStatus(status) {
		return ErrInvalidJobStatus
	}
	j.Status = status
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// SetProgress records pipeline progress.
func (j *StoryJob) SetProgress(p Progress) {
	j.Progress = p
	j.UpdatedAt = time.Now().UTC()
}

// Complete stores the finished story.
func (j *StoryJob) Complete(result *StoryResult) {
	j.Result = result
	j.Status = JobStatusCompleted
	j.UpdatedAt = time.Now().UTC()
}

// Reject records a moderation rejection.
func (j *StoryJob) Reject(field string) {
	j.RejectedField = field
	j.Status = JobStatusRejected
	j.UpdatedAt = time.Now().UTC()
}

// Fail records a terminal error of the given kind. A cancellation is stored
// with the cancelled status rather than failed.
func (j *StoryJob) Fail(kind ErrorKind, err error) {
	j.ErrorKind = kind
	j.Error = err.Error()
	j.Status = JobStatusFailed
	if kind == ErrorKindCancelled {
		j.Status = JobStatusCancelled
	}
	j.UpdatedAt = time.Now().UTC()
}

// Clone returns a copy that shares no mutable state with j.
func (j *StoryJob) Clone() *StoryJob {
	if j == nil {
		return nil
	}
	out := *j
	if j.Fields != nil {
		out.Fields = make(FieldMap, len(j.Fields))
		copy(out.Fields, j.Fields)
	}
	out.Result = j.Result.Clone()
	return &out
}
