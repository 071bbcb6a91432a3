package export

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/store"
)

// RollbackResult reports a user requested rollback.
type RollbackResult struct {
	Success       bool     `json:"success"`
	RollbackCount int      `json:"rollback_count"`
	FailedIDs     []string `json:"failed_ids"`
}

// Rollback puts previously exported items back into target and clears
// their export markers. It is only ever run on explicit request; the
// engine never calls it after a partial failure.
//
// Rolling back to pending reuses each snapshot's owner page; items
// without one fail individually.
func (e *Engine) Rollback(ctx context.Context, items []domain.Item, target domain.Category) (*RollbackResult, error) {
	if target != domain.CategoryKept && target != domain.CategoryPending {
		return nil, domain.NewValidationError("category", fmt.Sprintf("cannot roll back to %q: must be kept or pending", target))
	}

	res := &RollbackResult{FailedIDs: []string{}}
	for _, it := range items {
		patch := store.Patch{Category: &target, ClearExport: true}
		if target == domain.CategoryPending {
			owner := it.OwnerPageID
			patch.OwnerPageID = &owner
		}
		if err := e.items.Update(ctx, it.ID, patch); err != nil {
			e.logger.Warn("rollback failed for item",
				logger.String("id", it.ID),
				logger.Error(err))
			res.FailedIDs = append(res.FailedIDs, it.ID)
			continue
		}
		res.RollbackCount++
	}
	res.Success = res.RollbackCount > 0

	e.logger.Info("rollback finished",
		logger.String("target", target.String()),
		logger.Int("rolled_back", res.RollbackCount),
		logger.Int("failed", len(res.FailedIDs)))
	return res, nil
}

// HistoryFormat selects the history export layout.
type HistoryFormat string

const (
	HistoryFull    HistoryFormat = "full"    // the log as stored
	HistoryGrouped HistoryFormat = "grouped" // one record per id with its files
)

// ExportHistory renders the history log as indented JSON.
func (e *Engine) ExportHistory(ctx context.Context, format HistoryFormat) (string, error) {
	log, err := e.items.History(ctx)
	if err != nil {
		return "", err
	}
	if len(log) == 0 {
		return "", fmt.Errorf("history: %w", domain.ErrEmptyExport)
	}

	var v any
	switch format {
	case HistoryFull, "":
		v = log
	case HistoryGrouped:
		v = domain.GroupHistory(log)
	default:
		return "", domain.NewValidationError("format", fmt.Sprintf("invalid history format %q: must be full or grouped", format))
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding history: %w", err)
	}
	return string(data), nil
}
