// Package api wires the chi router, middleware, and JSON handlers for
// the tracker's HTTP surface.
package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/sunnysinghal86/ai-news-tracker/internal/api/handlers"
	"github.com/sunnysinghal86/ai-news-tracker/internal/config"
	"github.com/sunnysinghal86/ai-news-tracker/internal/storage"
)

// Deps carries the collaborators the router exposes over HTTP.
type Deps struct {
	Store       *storage.Store
	Config      *config.Config
	Pipeline    handlers.Refresher
	Digest      handlers.DigestSender
	SourceNames []string
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(RequestLogger)
	r.Use(Recovery)
	r.Use(CORS)

	r.Get("/health", handlers.Health())

	r.Route("/api", func(api chi.Router) {
		api.Get("/news", handlers.GetNews(deps.Store))
		api.Get("/news/stats", handlers.GetStats(deps.Store))
		api.Get("/categories", handlers.GetCategories())
		api.Get("/sources", handlers.GetSources(deps.SourceNames))

		api.Get("/subscribers", handlers.ListSubscribers(deps.Store))
		api.Post("/subscribers", handlers.CreateSubscriber(deps.Store))
		api.Delete("/subscribers/{email}", handlers.DeleteSubscriber(deps.Store))

		api.Get("/config", handlers.GetConfig(deps.Config))
		api.Post("/refresh", handlers.Refresh(deps.Pipeline))
		api.Post("/digest", handlers.SendDigest(deps.Digest))
	})

	return r
}
