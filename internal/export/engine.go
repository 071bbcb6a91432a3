package export

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/shelf/internal/clipboard"
	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/store"
)

// PersistenceResult aggregates the post-copy store updates. Sub-steps run
// independently; a failure is recorded and the remaining steps still run.
type PersistenceResult struct {
	Success                 bool      `json:"success"`
	SuccessCount            int       `json:"success_count"`
	FailedCount             int       `json:"failed_count"`
	FailedIDs               []string  `json:"failed_ids"`
	ProcessedPendingCount   int       `json:"processed_pending_count"`
	ProcessedDismissedCount int       `json:"processed_dismissed_count"`
	ProcessedKeptCount      int       `json:"processed_kept_count"`
	CollectedCount          int       `json:"collected_count"`
	Errors                  []string  `json:"errors,omitempty"`
	Timestamp               time.Time `json:"timestamp"`
}

func (p *PersistenceResult) fail(id string, err error) {
	p.FailedCount++
	p.FailedIDs = append(p.FailedIDs, id)
	p.Errors = append(p.Errors, fmt.Sprintf("%s: %v", id, err))
}

// Result is the outcome of an export call that reached the clipboard.
type Result struct {
	BatchID     string             `json:"batch_id"`
	Success     bool               `json:"success"`
	Format      Format             `json:"format"`
	Text        string             `json:"text"`
	ItemCount   int                `json:"item_count"`
	Category    domain.Category    `json:"category,omitempty"`
	Persistence *PersistenceResult `json:"persistence,omitempty"`
	Warning     string             `json:"warning,omitempty"`
}

// Options tune the page export.
type Options struct {
	// OnlyNewKept leaves kept items that were already exported out of a
	// page export. Repeating an export with nothing new then yields
	// ErrEmptyExport. By default every kept item is copied.
	OnlyNewKept bool
}

// Engine runs exports against the item store, one at a time.
type Engine struct {
	mu     sync.Mutex
	items  *store.Repository
	sink   clipboard.Sink
	opts   Options
	logger logger.Logger
}

func New(items *store.Repository, sink clipboard.Sink, opts Options, log logger.Logger) *Engine {
	return &Engine{items: items, sink: sink, opts: opts, logger: log}
}

// ExportKeptAndPending copies the kept and pending items of pageID, then
// promotes pending items to kept, deletes the page's dismissed items and
// deletes page-scoped items left behind by every other page.
//
// ErrEmptyExport and clipboard failures return before any mutation.
// Persistence failures are reported in the result, never as an error.
func (e *Engine) ExportKeptAndPending(ctx context.Context, pageID string) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	set, err := e.items.ForPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	part := domain.PartitionItems(set)

	kept := part.Kept
	if e.opts.OnlyNewKept {
		kept = neverExported(kept)
	}

	exportSet := make([]domain.Item, 0, len(kept)+len(part.Pending))
	exportSet = append(exportSet, kept...)
	exportSet = append(exportSet, part.Pending...)
	if len(exportSet) == 0 {
		return nil, fmt.Errorf("page %s: %w", pageID, domain.ErrEmptyExport)
	}

	text, err := Render(exportSet, FormatList, e.items.ListingBaseURL())
	if err != nil {
		return nil, err
	}
	if err := e.sink.Write(text); err != nil {
		e.logger.Warn("export aborted, clipboard write failed",
			logger.String("page", pageID),
			logger.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrClipboard, err)
	}

	res := &Result{
		BatchID:   uuid.NewString(),
		Success:   true,
		Format:    FormatList,
		Text:      text,
		ItemCount: len(exportSet),
	}

	p := e.persistPageExport(ctx, pageID, kept, part.Pending, part.Dismissed)
	res.Persistence = p
	if !p.Success {
		res.Warning = "export copied but some store updates failed"
	}

	e.logger.Info("page export finished",
		logger.String("batch", res.BatchID),
		logger.String("page", pageID),
		logger.Int("items", res.ItemCount),
		logger.Int("promoted", p.ProcessedPendingCount),
		logger.Int("dismissed_deleted", p.ProcessedDismissedCount),
		logger.Int("collected", p.CollectedCount),
		logger.Int("failed", p.FailedCount))
	return res, nil
}

func (e *Engine) persistPageExport(ctx context.Context, pageID string, kept, pending, dismissed []domain.Item) *PersistenceResult {
	now := e.items.Now()
	p := &PersistenceResult{FailedIDs: []string{}, Timestamp: now}
	keptCategory := domain.CategoryKept

	for _, it := range pending {
		if err := e.items.Update(ctx, it.ID, store.Patch{Category: &keptCategory, ExportedAt: &now}); err != nil {
			p.fail(it.ID, err)
			continue
		}
		p.SuccessCount++
		p.ProcessedPendingCount++
	}

	for _, it := range kept {
		if err := e.items.Update(ctx, it.ID, store.Patch{ExportedAt: &now}); err != nil {
			p.fail(it.ID, err)
			continue
		}
		p.SuccessCount++
		p.ProcessedKeptCount++
	}

	for _, it := range dismissed {
		if err := e.items.Delete(ctx, it.ID); err != nil {
			p.fail(it.ID, err)
			continue
		}
		p.SuccessCount++
		p.ProcessedDismissedCount++
	}

	all, err := e.items.GetAll(ctx)
	if err != nil {
		p.Errors = append(p.Errors, fmt.Sprintf("collecting other pages: %v", err))
	} else {
		for _, id := range sortedIDs(all) {
			it := all[id]
			if !it.Category.PageScoped() || it.OwnerPageID == "" || it.OwnerPageID == pageID {
				continue
			}
			if err := e.items.Delete(ctx, id); err != nil {
				p.fail(id, err)
				continue
			}
			e.logger.Debug("collected item from another page",
				logger.String("id", id),
				logger.String("owner", it.OwnerPageID))
			p.SuccessCount++
			p.CollectedCount++
		}
	}

	p.Success = p.FailedCount == 0 && len(p.Errors) == 0
	return p
}

// ExportByCategory copies every item of one category in format. With
// persist set, pending items become kept, dismissed items are deleted and
// kept items only get their export metadata refreshed.
func (e *Engine) ExportByCategory(ctx context.Context, category domain.Category, format Format, persist bool) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := domain.ValidateCategory(category); err != nil {
		return nil, err
	}
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}

	all, err := e.items.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var selected []domain.Item
	for _, it := range all {
		if it.Category == category {
			selected = append(selected, it)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("category %s: %w", category, domain.ErrEmptyExport)
	}
	domain.SortByID(selected)

	text, err := Render(selected, format, e.items.ListingBaseURL())
	if err != nil {
		return nil, err
	}
	if err := e.sink.Write(text); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrClipboard, err)
	}

	res := &Result{
		BatchID:   uuid.NewString(),
		Success:   true,
		Format:    format,
		Text:      text,
		ItemCount: len(selected),
		Category:  category,
	}
	if !persist {
		return res, nil
	}

	now := e.items.Now()
	p := &PersistenceResult{FailedIDs: []string{}, Timestamp: now}
	for _, it := range selected {
		var err error
		switch category {
		case domain.CategoryPending:
			kept := domain.CategoryKept
			from := domain.CategoryPending
			err = e.items.Update(ctx, it.ID, store.Patch{Category: &kept, ExportedAs: &from, ExportedAt: &now})
			if err == nil {
				p.ProcessedPendingCount++
			}
		case domain.CategoryDismissed:
			err = e.items.Delete(ctx, it.ID)
			if err == nil {
				p.ProcessedDismissedCount++
			}
		default:
			from := domain.CategoryKept
			err = e.items.Update(ctx, it.ID, store.Patch{ExportedAs: &from, ExportedAt: &now})
			if err == nil {
				p.ProcessedKeptCount++
			}
		}
		if err != nil {
			p.fail(it.ID, err)
			continue
		}
		p.SuccessCount++
	}
	p.Success = p.FailedCount == 0
	res.Persistence = p
	if !p.Success {
		res.Warning = "export copied but some store updates failed"
	}

	e.logger.Info("category export finished",
		logger.String("batch", res.BatchID),
		logger.String("category", category.String()),
		logger.String("format", string(format)),
		logger.Int("items", res.ItemCount),
		logger.Int("failed", p.FailedCount))
	return res, nil
}

func neverExported(items []domain.Item) []domain.Item {
	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if it.ExportCount == 0 && it.LastExportedAt == nil {
			out = append(out, it)
		}
	}
	return out
}

func sortedIDs(items map[string]domain.Item) []string {
	list := make([]domain.Item, 0, len(items))
	for _, it := range items {
		list = append(list, it)
	}
	domain.SortByID(list)
	ids := make([]string, len(list))
	for i, it := range list {
		ids[i] = it.ID
	}
	return ids
}
