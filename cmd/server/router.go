package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/madlib-comics/internal/api"
	apiMiddleware "github.com/phrazzld/madlib-comics/internal/api/middleware"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace(app.logger))

	storyHandler := api.NewStoryHandler(app.runner, app.stories, app.logger)
	submitLimit := apiMiddleware.RateLimit(apiMiddleware.NewLimiter(
		app.config.Limits.SubmitRPS,
		app.config.Limits.SubmitBurst,
	))

	r.Route("/api", func(r chi.Router) {
		storyHandler.Routes(r, submitLimit)
	})

	r.Get("/health", api.Health)

	return r
}
