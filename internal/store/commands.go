package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// AddManual creates a pending item from user input on pageID.
// Malformed input is rejected before the store is read.
func (r *Repository) AddManual(ctx context.Context, id, name, pageID string) (domain.Item, error) {
	if err := domain.ValidateManualEntry(id, name); err != nil {
		return domain.Item{}, err
	}
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)

	it, err := domain.NewPending(id, name, pageID)
	if err != nil {
		return domain.Item{}, err
	}

	exists, err := r.Has(ctx, id)
	if err != nil {
		return domain.Item{}, err
	}
	if exists {
		return domain.Item{}, domain.NewValidationError("id", fmt.Sprintf("item %s already exists", id))
	}

	if err := r.Save(ctx, id, Draft{Name: it.Name, Category: it.Category, OwnerPageID: it.OwnerPageID}); err != nil {
		return domain.Item{}, err
	}
	r.logger.Info("item added manually", logger.String("id", id), logger.String("page", pageID))
	return it, nil
}

// Exclude dismisses id on pageID, remembering its current category.
// An unknown id is recorded as a dismissed pending item.
func (r *Repository) Exclude(ctx context.Context, id, pageID string) error {
	return r.mutate(ctx, id, false, func(cur *domain.Item) (*domain.Item, error) {
		base := domain.Item{ID: id, Category: domain.CategoryPending, OwnerPageID: pageID}
		if cur != nil {
			base = *cur
		}
		next, err := base.Dismiss(pageID)
		if err != nil {
			return nil, err
		}
		return &next, nil
	})
}

// Restore returns a dismissed item to its previous category.
// Restoring an unknown id is a no-op.
func (r *Repository) Restore(ctx context.Context, id, pageID string) error {
	return r.mutate(ctx, id, false, func(cur *domain.Item) (*domain.Item, error) {
		if cur == nil {
			return nil, nil
		}
		next, err := cur.Restore(pageID)
		if err != nil {
			return nil, err
		}
		return &next, nil
	})
}

// Rename changes the display name only.
func (r *Repository) Rename(ctx context.Context, id, name string) error {
	return r.Update(ctx, id, Patch{Name: &name})
}

// Stats summarises the store.
type Stats struct {
	Kept       int `json:"kept"`
	Pending    int `json:"pending"`
	Dismissed  int `json:"dismissed"`
	Total      int `json:"total"`
	History    int `json:"history"`
	Free       int `json:"free"`
	Registered int `json:"registered"`
}

func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	items, err := r.load(ctx)
	if err != nil {
		return Stats{}, err
	}
	var s Stats
	for _, it := range items {
		switch it.Category {
		case domain.CategoryKept:
			s.Kept++
		case domain.CategoryPending:
			s.Pending++
		case domain.CategoryDismissed:
			s.Dismissed++
		}
	}
	s.Total = len(items)

	log, err := r.History(ctx)
	if err != nil {
		return s, err
	}
	s.History = len(log)
	for _, e := range log {
		if e.Free {
			s.Free++
		}
		if e.Registered {
			s.Registered++
		}
	}
	return s, nil
}

// Clear removes every key owned by the repository.
func (r *Repository) Clear(ctx context.Context) error {
	keys, err := r.backend.Keys(ctx, KeyPrefix)
	if err != nil {
		return fmt.Errorf("listing keys: %w", err)
	}
	for _, k := range keys {
		if err := r.backend.Delete(ctx, k); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrStorageWrite, err)
		}
	}
	r.logger.Info("store cleared", logger.Int("keys", len(keys)))
	return nil
}

// Audit reports ids whose stored value breaks the category invariants.
// Nothing is repaired.
func (r *Repository) Audit(ctx context.Context) ([]string, error) {
	items, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	var bad []string
	for id, it := range items {
		if it.ID != id {
			bad = append(bad, id)
			continue
		}
		if err := it.Validate(); err != nil {
			r.logger.Warn("invalid item in store", logger.String("id", id), logger.Error(err))
			bad = append(bad, id)
		}
	}
	sort.Strings(bad)
	return bad, nil
}
