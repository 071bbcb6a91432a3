package discovery

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/dispatch"
	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/fetcher"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/store"
)

const DefaultItemDelay = 300 * time.Millisecond

// Outcome classifies a finished batch.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailed  Outcome = "failed"
	OutcomeEmpty   Outcome = "empty"
)

// ItemResult is the per-candidate outcome of a batch.
type ItemResult struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Name    string `json:"name,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Summary reports a batch. ManualEntry lists the candidates whose name
// could not be resolved.
type Summary struct {
	PageID      string       `json:"page_id"`
	Outcome     Outcome      `json:"outcome"`
	Requested   int          `json:"requested"`
	Succeeded   int          `json:"succeeded"`
	Failed      int          `json:"failed"`
	Skipped     int          `json:"skipped"`
	Items       []ItemResult `json:"items"`
	ManualEntry []Candidate  `json:"manual_entry"`
}

// Writer is the part of the item store a batch needs.
type Writer interface {
	Has(ctx context.Context, id string) (bool, error)
	Save(ctx context.Context, id string, d store.Draft) error
}

// Batch resolves candidate names through the dispatcher and stores each
// success as a pending item owned by the page.
type Batch struct {
	items      Writer
	dispatcher *dispatch.Dispatcher
	fetcher    fetcher.Fetcher
	itemDelay  time.Duration
	logger     logger.Logger
}

func NewBatch(items Writer, d *dispatch.Dispatcher, f fetcher.Fetcher, itemDelay time.Duration, log logger.Logger) *Batch {
	if itemDelay < 0 {
		itemDelay = 0
	}
	return &Batch{items: items, dispatcher: d, fetcher: f, itemDelay: itemDelay, logger: log}
}

// Progress is called after each candidate with the number handled so far.
type Progress func(done, total int)

// Run processes candidates one after another, waiting itemDelay between
// attempts. Candidates stored since discovery are skipped.
func (b *Batch) Run(ctx context.Context, pageID string, candidates []Candidate, progress Progress) Summary {
	sum := Summary{
		PageID:      pageID,
		Requested:   len(candidates),
		Items:       make([]ItemResult, 0, len(candidates)),
		ManualEntry: []Candidate{},
	}

	for i, c := range candidates {
		res := b.runOne(ctx, pageID, c)
		switch {
		case res.Skipped:
			sum.Skipped++
		case res.Error != "":
			sum.Failed++
			sum.ManualEntry = append(sum.ManualEntry, c)
		default:
			sum.Succeeded++
		}
		sum.Items = append(sum.Items, res)

		if progress != nil {
			progress(i+1, len(candidates))
		}
		if i < len(candidates)-1 && b.itemDelay > 0 && !res.Skipped {
			time.Sleep(b.itemDelay)
		}
	}

	sum.Outcome = classify(sum)
	b.logger.Info("fetch batch finished",
		logger.String("page", pageID),
		logger.String("outcome", string(sum.Outcome)),
		logger.Int("succeeded", sum.Succeeded),
		logger.Int("failed", sum.Failed),
		logger.Int("skipped", sum.Skipped))
	return sum
}

func (b *Batch) runOne(ctx context.Context, pageID string, c Candidate) ItemResult {
	res := ItemResult{ID: c.ID, URL: c.URL}

	exists, err := b.items.Has(ctx, c.ID)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if exists {
		res.Skipped = true
		return res
	}

	future := dispatch.Submit(ctx, b.dispatcher, func(taskCtx context.Context) (fetcher.Result, error) {
		return b.fetcher.Fetch(taskCtx, c.URL)
	})
	fetched, err := future.Wait(context.WithoutCancel(ctx))
	if err != nil {
		b.logger.Warn("name lookup failed",
			logger.String("id", c.ID),
			logger.Error(err))
		res.Error = err.Error()
		return res
	}

	if err := b.items.Save(ctx, c.ID, store.Draft{
		Name:        fetched.Name,
		Category:    domain.CategoryPending,
		OwnerPageID: pageID,
	}); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Name = fetched.Name
	return res
}

func classify(s Summary) Outcome {
	attempted := s.Succeeded + s.Failed
	switch {
	case attempted == 0:
		return OutcomeEmpty
	case s.Failed == 0:
		return OutcomeSuccess
	case s.Succeeded == 0:
		return OutcomeFailed
	default:
		return OutcomePartial
	}
}
