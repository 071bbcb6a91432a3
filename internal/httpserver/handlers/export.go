package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/export"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
)

type pageExportResponse struct {
	*export.Result
	Page pageResponse `json:"page"`
}

type rollbackRequest struct {
	Items  []domain.Item `json:"items"`
	Target string        `json:"target"`
}

// ExportPage copies the kept and pending items of {page}, then applies the
// export transitions. Pending renames are committed first so the copy
// carries the latest names.
func ExportPage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageID := chi.URLParam(r, "page")
		d.Renames.Flush(r.Context())

		res, err := d.Exports.ExportKeptAndPending(r.Context(), pageID)
		if err != nil {
			writeError(w, d, r, err)
			return
		}

		page, err := buildPage(r.Context(), d, pageID)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, pageExportResponse{Result: res, Page: page})
	}
}

// ExportCategory copies every item of {category}.
// Query: format (list|urls|detailed|csv|json), persist (bool, default false).
func ExportCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category, err := domain.ParseCategory(chi.URLParam(r, "category"))
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		format, err := export.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		persist := false
		if v := r.URL.Query().Get("persist"); v != "" {
			persist, err = strconv.ParseBool(v)
			if err != nil {
				writeError(w, d, r, domain.NewValidationError("persist", "must be a boolean"))
				return
			}
		}

		d.Renames.Flush(r.Context())
		res, err := d.Exports.ExportByCategory(r.Context(), category, format, persist)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// Rollback restores items from a snapshot taken before an export.
func Rollback(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rollbackRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d, r, err)
			return
		}
		if len(req.Items) == 0 {
			writeError(w, d, r, domain.NewValidationError("items", "must not be empty"))
			return
		}
		target, err := domain.ParseCategory(req.Target)
		if err != nil {
			writeError(w, d, r, err)
			return
		}

		res, err := d.Exports.Rollback(r.Context(), req.Items, target)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
