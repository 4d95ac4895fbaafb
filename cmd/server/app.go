package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/madlib-comics/internal/config"
	"github.com/phrazzld/madlib-comics/internal/generation"
	"github.com/phrazzld/madlib-comics/internal/moderation"
	"github.com/phrazzld/madlib-comics/internal/naming"
	"github.com/phrazzld/madlib-comics/internal/platform/gemini"
	"github.com/phrazzld/madlib-comics/internal/platform/postgres"
	"github.com/phrazzld/madlib-comics/internal/service"
	"github.com/phrazzld/madlib-comics/internal/store"
	"github.com/phrazzld/madlib-comics/internal/task"
)

// application holds the shared dependencies of the server so they can be
// cleaned up together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	stories service.StoryService
	runner  *task.Runner
}

// newApplication creates the job store and generator described by cfg and
// assembles the rest of the application around them. Without a database URL
// jobs are kept in memory and lost on restart.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	var (
		db   *sql.DB
		jobs store.JobStore
	)
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.Database.URL, logger)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db, logger); err != nil {
			_ = db.Close()
			return nil, err
		}
		jobs = postgres.NewPostgresJobStore(db, logger)
	} else {
		logger.Warn("no database configured, story jobs are kept in memory")
		jobs = store.NewMemoryJobStore()
	}

	generator, err := gemini.NewGeminiGenerator(ctx, logger, cfg.LLM, cfg.Generation)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
	}

	app, err := buildApplication(cfg, logger, jobs, generator)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}
	app.db = db
	return app, nil
}

// buildApplication wires the moderation, naming, story service and runner
// layers on top of a job store and generator.
func buildApplication(
	cfg *config.Config,
	logger *slog.Logger,
	jobs store.JobStore,
	generator generation.Generator,
) (*application, error) {
	stories, err := service.NewStoryService(
		moderation.FromConfig(cfg.Generation.Denylist),
		naming.NewItalianizer(nil),
		generator,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create story service: %w", err)
	}

	runner := task.NewRunner(jobs, stories, task.RunnerConfig{
		QueueSize:  cfg.Runner.QueueSize,
		JobTimeout: cfg.Runner.JobTimeout,
	}, logger)

	return &application{
		config:  cfg,
		logger:  logger,
		stories: stories,
		runner:  runner,
	}, nil
}

// start launches the background runner.
func (app *application) start(ctx context.Context) error {
	if err := app.runner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}
	return nil
}

// cleanup stops the runner and closes the database. It runs after the HTTP
// server has stopped accepting requests.
func (app *application) cleanup() {
	app.runner.Stop()
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
	}
}
