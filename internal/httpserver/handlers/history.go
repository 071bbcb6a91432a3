package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/shelf/internal/export"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/store"
)

type okResponse struct {
	OK bool `json:"ok"`
}

type statsResponse struct {
	store.Stats
	PendingRenames int `json:"pending_renames"`
}

// History returns the history log. Query: format (full|grouped).
func History(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		text, err := d.Exports.ExportHistory(r.Context(), export.HistoryFormat(r.URL.Query().Get("format")))
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(text))
	}
}

func ClearHistory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Items.ClearHistory(r.Context()); err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, okResponse{OK: true})
	}
}

func Stats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := d.Items.Stats(r.Context())
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, statsResponse{Stats: s, PendingRenames: d.Renames.Pending()})
	}
}
