package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/sources/importfile"
)

// maxBodyBytes caps JSON and import bodies.
const maxBodyBytes = 4 << 20

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Code  string `json:"code"`
}

// pageResponse is the page set returned after every page-scoped call so
// the caller can redraw without a second request.
type pageResponse struct {
	Page      string        `json:"page"`
	Items     []domain.Item `json:"items"`
	Kept      int           `json:"kept"`
	Pending   int           `json:"pending"`
	Dismissed int           `json:"dismissed"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, d deps.Deps, r *http.Request, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		d.Logger.Error("request failed",
			logger.String("path", r.URL.Path),
			logger.Error(err))
		msg = "internal error"
	} else {
		d.Logger.Debug("request rejected",
			logger.String("path", r.URL.Path),
			logger.String("code", code),
			logger.Error(err))
	}
	writeJSON(w, status, errorResponse{OK: false, Error: msg, Code: code})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, importfile.ErrNoItems):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, domain.ErrEmptyExport):
		return http.StatusConflict, "empty_export"
	case errors.Is(err, domain.ErrClipboard):
		return http.StatusBadGateway, "clipboard"
	case errors.Is(err, domain.ErrStorageWrite):
		return http.StatusServiceUnavailable, "storage_write"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// decodeJSON reads a JSON body into v. Malformed bodies are validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.NewValidationError("body", fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}

func buildPage(ctx context.Context, d deps.Deps, pageID string) (pageResponse, error) {
	set, err := d.Items.ForPage(ctx, pageID)
	if err != nil {
		return pageResponse{}, err
	}
	part := domain.PartitionItems(set)

	items := make([]domain.Item, 0, len(set))
	items = append(items, part.Kept...)
	items = append(items, part.Pending...)
	items = append(items, part.Dismissed...)

	return pageResponse{
		Page:      pageID,
		Items:     items,
		Kept:      len(part.Kept),
		Pending:   len(part.Pending),
		Dismissed: len(part.Dismissed),
	}, nil
}
