package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shelf/internal/discovery"
	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// candidateRequest carries page text to scan, an explicit list, or both.
type candidateRequest struct {
	Text       string                `json:"text"`
	Candidates []discovery.Candidate `json:"candidates"`
}

type candidateResponse struct {
	Page       string                `json:"page"`
	Found      int                   `json:"found"`
	Candidates []discovery.Candidate `json:"candidates"`
}

type fetchResponse struct {
	Summary discovery.Summary `json:"summary"`
	Page    pageResponse      `json:"page"`
}

// collect merges parsed and explicit candidates, first occurrence wins.
func collect(req candidateRequest, pageID string) ([]discovery.Candidate, error) {
	out := discovery.ParseCandidates(req.Text, pageID)
	seen := make(map[string]bool, len(out))
	for _, c := range out {
		seen[c.ID] = true
	}
	for _, c := range req.Candidates {
		if c.ID == "" {
			return nil, domain.NewValidationError("candidates", "every candidate needs an id")
		}
		if c.ID == pageID || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out, nil
}

// Candidates lists the candidates of {page} not yet in the store.
// Nothing is written.
func Candidates(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageID := chi.URLParam(r, "page")

		var req candidateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d, r, err)
			return
		}
		all, err := collect(req, pageID)
		if err != nil {
			writeError(w, d, r, err)
			return
		}

		fresh, err := discovery.Reconcile(r.Context(), d.Items, all)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, candidateResponse{Page: pageID, Found: len(all), Candidates: fresh})
	}
}

// Fetch resolves the new candidates of {page} and stores them as pending.
// The call returns once the whole batch has been processed.
func Fetch(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageID := chi.URLParam(r, "page")

		var req candidateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d, r, err)
			return
		}
		all, err := collect(req, pageID)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		fresh, err := discovery.Reconcile(r.Context(), d.Items, all)
		if err != nil {
			writeError(w, d, r, err)
			return
		}

		summary := d.Batch.Run(r.Context(), pageID, fresh, func(done, total int) {
			d.Logger.Debug("batch progress",
				logger.String("page", pageID),
				logger.Int("done", done),
				logger.Int("total", total))
		})

		page, err := buildPage(r.Context(), d, pageID)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, fetchResponse{Summary: summary, Page: page})
	}
}
