package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerAdmin) }

func registerAdmin(r chi.Router, d deps.Deps) {
	r.Get("/history", handlers.History(d))
	r.Delete("/history", handlers.ClearHistory(d))
	r.Get("/stats", handlers.Stats(d))
	r.Post("/import", handlers.Import(d))
	r.Post("/audit", handlers.Audit(d))
}
