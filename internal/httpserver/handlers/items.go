package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

type manualAddRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type itemResponse struct {
	OK   bool         `json:"ok"`
	Item domain.Item  `json:"item"`
	Page pageResponse `json:"page"`
}

type renameRequest struct {
	Name *string `json:"name"`
}

type renameResponse struct {
	OK      bool   `json:"ok"`
	ID      string `json:"id"`
	Pending bool   `json:"pending"`
}

// PageItems returns the page set of {page}.
func PageItems(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := buildPage(r.Context(), d, chi.URLParam(r, "page"))
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// AddItem stores a manually entered listing as pending on {page}.
func AddItem(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageID := chi.URLParam(r, "page")

		var req manualAddRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d, r, err)
			return
		}

		it, err := d.Items.AddManual(r.Context(), req.ID, req.Name, pageID)
		if err != nil {
			writeError(w, d, r, err)
			return
		}

		page, err := buildPage(r.Context(), d, pageID)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, itemResponse{OK: true, Item: it, Page: page})
	}
}

// Exclude dismisses {id} on {page}.
func Exclude(d deps.Deps) http.HandlerFunc {
	return pageMutation(d, func(r *http.Request, pageID, id string) error {
		d.Renames.Cancel(id)
		return d.Items.Exclude(r.Context(), id, pageID)
	})
}

// Restore returns a dismissed {id} to its previous category.
func Restore(d deps.Deps) http.HandlerFunc {
	return pageMutation(d, func(r *http.Request, pageID, id string) error {
		return d.Items.Restore(r.Context(), id, pageID)
	})
}

func pageMutation(d deps.Deps, fn func(r *http.Request, pageID, id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageID := chi.URLParam(r, "page")
		id := chi.URLParam(r, "id")

		if err := fn(r, pageID, id); err != nil {
			writeError(w, d, r, err)
			return
		}

		page, err := buildPage(r.Context(), d, pageID)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// Rename schedules a display name change. Bursts of edits for the same id
// produce one store write after the debounce period.
func Rename(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req renameRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d, r, err)
			return
		}
		if req.Name == nil {
			writeError(w, d, r, domain.NewValidationError("name", "is required"))
			return
		}

		d.Renames.Schedule(id, *req.Name)
		d.Logger.Debug("rename scheduled", logger.String("id", id))
		writeJSON(w, http.StatusAccepted, renameResponse{OK: true, ID: id, Pending: true})
	}
}

// DeleteItem removes {id}. Deleting an unknown id succeeds.
func DeleteItem(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		d.Renames.Cancel(id)

		if err := d.Items.Delete(r.Context(), id); err != nil {
			writeError(w, d, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
