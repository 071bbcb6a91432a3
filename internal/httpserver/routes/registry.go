package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/mw"
)

// Registrar adds routes to r.
type Registrar func(r chi.Router, d deps.Deps)

var (
	public []Registrar // mounted at the root
	api    []Registrar // mounted under /api behind the ip and host guards
)

// Register adds root-level routes (probes).
func Register(reg Registrar) { public = append(public, reg) }

// RegisterAPI adds routes relative to /api.
func RegisterAPI(reg Registrar) { api = append(api, reg) }

// RegisterAll mounts every registrar. Called once by the server.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, reg := range public {
		reg(r, d)
	}
	r.Route("/api", func(g chi.Router) {
		g.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
		g.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
		for _, reg := range api {
			reg(g, d)
		}
	})
}
