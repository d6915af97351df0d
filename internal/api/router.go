package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/hoanghai1803/bookshelf/internal/api/handlers"
	"github.com/hoanghai1803/bookshelf/internal/feeds"
	"github.com/hoanghai1803/bookshelf/internal/history"
	"github.com/hoanghai1803/bookshelf/internal/readinglists"
	"github.com/hoanghai1803/bookshelf/internal/storage"
)

// Deps are the services the router's handlers call into.
type Deps struct {
	Store       *storage.Store
	Controller  *readinglists.Controller
	Funnel      *history.Funnel
	Fetcher     *feeds.Fetcher
	FeedOptions feeds.ImportOptions
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(RequestLogger)
	r.Use(Recovery)
	r.Use(CORS)
	r.Use(Language)

	r.Route("/api", func(api chi.Router) {
		api.Get("/reading-lists", handlers.GetReadingLists(d.Controller))
		api.Post("/reading-lists", handlers.CreateReadingList(d.Controller))
		api.Delete("/reading-lists", handlers.DeleteReadingLists(d.Controller))
		api.Get("/reading-lists/{name}", handlers.GetReadingList(d.Controller))
		api.Post("/reading-lists/{name}/entries", handlers.AddEntries(d.Controller))
		api.Delete("/reading-lists/{name}/entries", handlers.RemoveEntries(d.Controller))
		api.Post("/reading-lists/{name}/import", handlers.ImportFeeds(d.Controller, d.Fetcher, d.FeedOptions))

		api.Get("/articles/lists", handlers.GetListsForArticle(d.Controller))

		api.Get("/history/snapshot", handlers.GetHistorySnapshot(d.Funnel))

		api.Get("/preferences", handlers.GetPreferences(d.Store))
		api.Put("/preferences", handlers.UpdatePreferences(d.Store))
	})

	return r
}
