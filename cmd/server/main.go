// Package main implements the HTTP server for the mad-libs comic generator.
// It accepts answer sets from the browser UI, runs the generation pipeline in
// the background and serves job status until the comic is ready.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/phrazzld/madlib-comics/internal/config"
	"github.com/phrazzld/madlib-comics/internal/platform/logger"
)

// EnvFileEnv names an alternative dotenv file to load at startup.
const EnvFileEnv = "COMIC_ENV_FILE"

func main() {
	if err := run(context.Background()); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// run loads configuration, wires dependencies and serves until a shutdown
// signal arrives.
func run(ctx context.Context) error {
	if err := config.LoadDotEnv(os.Getenv(EnvFileEnv)); err != nil {
		return err
	}

	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	appLogger, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := app.start(ctx); err != nil {
		app.cleanup()
		return err
	}

	return app.startHTTPServer(ctx, app.setupRouter())
}

// loadAppConfig loads the application configuration from environment
// variables or a config file.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"text_model", cfg.LLM.TextModel,
		"image_model", cfg.LLM.ImageModel)
	slog.Debug("Database configuration", "url_present", cfg.Database.URL != "")

	return cfg, nil
}
