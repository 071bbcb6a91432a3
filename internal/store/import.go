package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// MergeMode decides what an import does with ids already in the store.
type MergeMode string

const (
	// MergeSkip leaves existing items untouched.
	MergeSkip MergeMode = "skip"
	// MergeReplace overwrites the name of existing items and keeps everything else.
	MergeReplace MergeMode = "replace"
)

func ParseMergeMode(s string) (MergeMode, error) {
	switch MergeMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MergeSkip:
		return MergeSkip, nil
	case MergeReplace:
		return MergeReplace, nil
	default:
		return "", domain.NewValidationError("mode", fmt.Sprintf("invalid merge mode %q: must be skip or replace", s))
	}
}

// ImportEntry is one id/name pair from an item list.
type ImportEntry struct {
	ID   string
	Name string
}

type ImportResult struct {
	Imported int `json:"imported"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Invalid  int `json:"invalid"`
}

// Import adds entries as kept items in a single write.
// Entries missing an id or a name are counted as invalid and ignored.
func (r *Repository) Import(ctx context.Context, entries []ImportEntry, mode MergeMode) (ImportResult, error) {
	var res ImportResult

	items, err := r.load(ctx)
	if err != nil {
		return res, err
	}

	var added []domain.Item
	for _, e := range entries {
		id := strings.TrimSpace(e.ID)
		name := strings.TrimSpace(e.Name)
		if id == "" || name == "" {
			res.Invalid++
			continue
		}

		if existing, ok := items[id]; ok {
			if mode != MergeReplace {
				res.Skipped++
				continue
			}
			existing.Name = name
			items[id] = existing
			res.Updated++
			continue
		}

		it, err := domain.NewKept(id, name)
		if err != nil {
			res.Invalid++
			continue
		}
		items[id] = it
		added = append(added, it)
		res.Imported++
	}

	if res.Imported == 0 && res.Updated == 0 {
		return res, nil
	}
	if err := r.saveAll(ctx, items); err != nil {
		return ImportResult{}, err
	}
	r.recordKept(ctx, added...)

	r.logger.Info("items imported",
		logger.Int("imported", res.Imported),
		logger.Int("updated", res.Updated),
		logger.Int("skipped", res.Skipped),
		logger.Int("invalid", res.Invalid))
	return res, nil
}
