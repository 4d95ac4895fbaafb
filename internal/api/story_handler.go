package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/madlib-comics/internal/api/shared"
	"github.com/phrazzld/madlib-comics/internal/domain"
	"github.com/phrazzld/madlib-comics/internal/platform/logger"
	"github.com/phrazzld/madlib-comics/internal/service"
)

// JobRunner is the subset of the background runner the handlers need.
type JobRunner interface {
	Submit(ctx context.Context, fields domain.FieldMap) (*domain.StoryJob, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.StoryJob, error)
	List(ctx context.Context, limit int) ([]*domain.StoryJob, error)
	Cancel(ctx context.Context, id uuid.UUID) (*domain.StoryJob, error)
}

// StoryHandler serves the moderation check and the story job endpoints.
type StoryHandler struct {
	runner    JobRunner
	moderator service.Moderator
	logger    *slog.Logger
}

// NewStoryHandler creates a new StoryHandler.
func NewStoryHandler(runner JobRunner, moderator service.Moderator, logger *slog.Logger) *StoryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoryHandler{
		runner:    runner,
		moderator: moderator,
		logger:    logger.With(slog.String("component", "story_handler")),
	}
}

// Moderate handles POST /api/moderate. It answers whether the fields pass
// the content policy without starting a job.
func (h *StoryHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	result := h.moderator.Moderate(fields)
	shared.RespondWithJSON(w, r, http.StatusOK, moderationToResponse(result))
}

// CreateStory handles POST /api/stories. Fields that fail moderation are
// answered with 422 and never reach the queue.
func (h *StoryHandler) CreateStory(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	fields, err := decodeFields(r)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	if result := h.moderator.Moderate(fields); result.Status == domain.ModerationRejected {
		log.Info("story submission rejected by moderation", "field", result.Field)
		shared.RespondWithError(w, r, http.StatusUnprocessableEntity,
			"Answer contains content that is not allowed",
			shared.WithField(result.Field))
		return
	}

	job, err := h.runner.Submit(r.Context(), fields)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	log.Info("story job accepted", "job_id", job.ID)
	w.Header().Set("Location", "/api/stories/"+job.ID.String())
	shared.RespondWithJSON(w, r, http.StatusAccepted, JobResponse{Job: job})
}

// GetStory handles GET /api/stories/{id}.
func (h *StoryHandler) GetStory(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	job, err := h.runner.Get(r.Context(), id)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, JobResponse{Job: job})
}

// ListStories handles GET /api/stories.
func (h *StoryHandler) ListStories(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	jobs, err := h.runner.List(r.Context(), limit)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []*domain.StoryJob{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, JobListResponse{Jobs: jobs})
}

// CancelStory handles DELETE /api/stories/{id}. A running job stops at its
// next cancellation point, so the returned snapshot may still be processing.
func (h *StoryHandler) CancelStory(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	job, err := h.runner.Cancel(r.Context(), id)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusAccepted, JobResponse{Job: job})
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		logger.FromContext(r.Context()).Error("failed to write health check response", "error", err)
	}
}

// Routes registers the story endpoints under r. submitLimit, when non-nil,
// wraps only the job submission route.
func (h *StoryHandler) Routes(r chi.Router, submitLimit func(http.Handler) http.Handler) {
	r.Post("/moderate", h.Moderate)
	r.Route("/stories", func(r chi.Router) {
		r.Get("/", h.ListStories)
		r.Group(func(r chi.Router) {
			if submitLimit != nil {
				r.Use(submitLimit)
			}
			r.Post("/", h.CreateStory)
		})
		r.Get("/{id}", h.GetStory)
		r.Delete("/{id}", h.CancelStory)
	})
}

func (h *StoryHandler) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	var opts []shared.ResponseOption
	if field := fieldOf(err); field != "" {
		opts = append(opts, shared.WithField(field))
	}
	if status == http.StatusConflict {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err, opts...)
}
