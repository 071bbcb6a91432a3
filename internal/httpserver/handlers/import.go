package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/sources/importfile"
	"github.com/MrSnakeDoc/shelf/internal/store"
)

type importResponse struct {
	store.ImportResult
	OK      bool   `json:"ok"`
	Version string `json:"version,omitempty"`
}

// Import adds the items of a JSON or YAML item list as kept.
// Query: mode (skip|replace, default skip).
func Import(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode, err := store.ParseMergeMode(r.URL.Query().Get("mode"))
		if err != nil {
			writeError(w, d, r, err)
			return
		}

		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, d, r, domain.NewValidationError("body", fmt.Sprintf("reading body: %v", err)))
			return
		}
		f, err := importfile.Parse(data)
		if err != nil {
			writeError(w, d, r, domain.NewValidationError("body", err.Error()))
			return
		}

		res, err := d.Items.Import(r.Context(), f.Entries(), mode)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, importResponse{ImportResult: res, OK: true, Version: f.Version})
	}
}
