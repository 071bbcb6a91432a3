package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerItems) }

func registerItems(r chi.Router, d deps.Deps) {
	r.Patch("/items/{id}", handlers.Rename(d))
	r.Delete("/items/{id}", handlers.DeleteItem(d))
	r.Post("/export/{category}", handlers.ExportCategory(d))
	r.Post("/rollback", handlers.Rollback(d))
}
