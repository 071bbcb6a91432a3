package discovery

import (
	"context"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/fetcher"
)

// Candidate is a listing reference found on a page.
type Candidate struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ParseCandidates finds listing URLs in text. Results keep first-seen
// order, carry no query or fragment, are unique by id and never include
// pageID itself.
func ParseCandidates(text, pageID string) []Candidate {
	seen := make(map[string]bool)
	var out []Candidate
	for _, ref := range fetcher.FindListings(text) {
		if ref.ID == pageID || seen[ref.ID] {
			continue
		}
		seen[ref.ID] = true
		out = append(out, Candidate{ID: ref.ID, URL: ref.URL})
	}
	return out
}

// ItemReader is the read side of the item store used for reconciliation.
type ItemReader interface {
	GetAll(ctx context.Context) (map[string]domain.Item, error)
}

// Reconcile drops candidates already stored under any category.
// The store is only read.
func Reconcile(ctx context.Context, items ItemReader, candidates []Candidate) ([]Candidate, error) {
	existing, err := items.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := existing[c.ID]; ok {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
