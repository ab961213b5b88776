package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/draftwire/draftwire/internal/api"
	"github.com/draftwire/draftwire/internal/api/middleware"
)

// buildRouter assembles the HTTP surface: the public health probe, the
// authenticated admission endpoint, and the token-guarded admin
// trigger.
func buildRouter(app *application) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Trace)
	r.Use(chimiddleware.Recoverer)

	healthHandler := api.NewHealthHandler(app.cfg.Publish, app.cfg.Callback)
	r.Get("/health", healthHandler.Health)

	publishHandler := api.NewPublishHandler(
		app.tasks, app.dispatcher, app.sched, app.identities, app.audit, app.cfg.Publish)
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublishAuth(app.verifier))
		r.Post("/publish-post", publishHandler.Submit)
	})

	// The admin surface only exists when a token secret is configured.
	if app.admTokens != nil {
		adminHandler := api.NewAdminHandler(app.dispatcher)
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminAuth(app.admTokens))
			r.Post("/callbacks/{id}/retry", adminHandler.RetryCallback)
		})
	}

	return r
}
