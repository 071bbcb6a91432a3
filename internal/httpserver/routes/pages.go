package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerPages) }

func registerPages(r chi.Router, d deps.Deps) {
	r.Route("/pages/{page}", func(p chi.Router) {
		p.Get("/items", handlers.PageItems(d))
		p.Post("/items", handlers.AddItem(d))
		p.Post("/items/{id}/exclude", handlers.Exclude(d))
		p.Post("/items/{id}/restore", handlers.Restore(d))
		p.Post("/candidates", handlers.Candidates(d))
		p.Post("/fetch", handlers.Fetch(d))
		p.Post("/export", handlers.ExportPage(d))
	})
}
