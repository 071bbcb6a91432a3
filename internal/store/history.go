package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// History returns the kept log in insertion order.
func (r *Repository) History(ctx context.Context) ([]domain.HistoryEntry, error) {
	data, err := r.backend.Get(ctx, KeyHistory)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	if len(data) == 0 {
		return []domain.HistoryEntry{}, nil
	}
	var log []domain.HistoryEntry
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("decoding history: %w", err)
	}
	return log, nil
}

// ClearHistory drops every history record.
func (r *Repository) ClearHistory(ctx context.Context) error {
	if err := r.backend.Delete(ctx, KeyHistory); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageWrite, err)
	}
	r.logger.Info("history cleared")
	return nil
}

func (r *Repository) saveHistory(ctx context.Context, log []domain.HistoryEntry) error {
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if err := r.backend.Set(ctx, KeyHistory, data); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageWrite, err)
	}
	return nil
}

// recordKept upserts history for items that just became kept.
// Failures are logged only; the item write already happened.
func (r *Repository) recordKept(ctx context.Context, items ...domain.Item) {
	if len(items) == 0 {
		return
	}
	log, err := r.History(ctx)
	if err != nil {
		r.logger.Warn("history not updated", logger.Error(err))
		return
	}
	now := r.now()
	for _, it := range items {
		log = domain.UpsertHistory(log, domain.NewHistoryEntry(it, now, r.listingBase))
	}
	if err := r.saveHistory(ctx, log); err != nil {
		r.logger.Warn("history not updated",
			logger.Int("items", len(items)),
			logger.Error(err))
	}
}
