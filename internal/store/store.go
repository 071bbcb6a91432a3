package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// Backend is a durable whole-value key/value store.
// Get returns nil, nil for a missing key.
type Backend interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// Repository owns the item collection and the history log.
//
// Every write reads the whole collection, changes it in memory and writes it
// back. Calls are not serialised: two overlapping writers race and the later
// write wins.
type Repository struct {
	backend     Backend
	logger      logger.Logger
	now         func() time.Time
	listingBase string
}

type Option func(*Repository)

// WithClock overrides time.Now for history and export timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithListingBaseURL sets the prefix used for listing URLs in history records.
func WithListingBaseURL(base string) Option {
	return func(r *Repository) { r.listingBase = base }
}

func New(backend Backend, log logger.Logger, opts ...Option) *Repository {
	r := &Repository{
		backend:     backend,
		logger:      log,
		now:         time.Now,
		listingBase: domain.DefaultListingBaseURL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Backend exposes the underlying backend for health checks.
func (r *Repository) Backend() Backend { return r.backend }

// Now returns the repository clock.
func (r *Repository) Now() time.Time { return r.now() }

// ListingBaseURL returns the configured listing URL prefix.
func (r *Repository) ListingBaseURL() string { return r.listingBase }

// ─────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────

// Get returns the item stored under id, or nil when absent.
func (r *Repository) Get(ctx context.Context, id string) (*domain.Item, error) {
	items, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	it, ok := items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

// GetAll returns every stored item keyed by id.
func (r *Repository) GetAll(ctx context.Context) (map[string]domain.Item, error) {
	return r.load(ctx)
}

// Has reports whether id is stored under any category.
func (r *Repository) Has(ctx context.Context, id string) (bool, error) {
	items, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	_, ok := items[id]
	return ok, nil
}

// ForPage returns every kept item plus the pending and dismissed items owned by pageID.
func (r *Repository) ForPage(ctx context.Context, pageID string) (map[string]domain.Item, error) {
	items, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return domain.PageSet(items, pageID), nil
}

// ─────────────────────────────────────────────────────────────────
// Writes
// ─────────────────────────────────────────────────────────────────

// Draft carries the fields of a new item. Fields that do not apply to
// Category are dropped.
type Draft struct {
	Name             string
	Category         domain.Category // defaults to pending
	OwnerPageID      string
	PreviousCategory domain.Category
}

// Patch is a partial update. nil fields are left unchanged; a pointer to
// the zero value clears the field.
type Patch struct {
	Name             *string
	Category         *domain.Category
	OwnerPageID      *string
	PreviousCategory *domain.Category
	ExportedAs       *domain.Category
	ExportedAt       *time.Time // bumps ExportCount and sets LastExportedAt
	ClearExport      bool       // drops LastExportedAt and ExportedAs
}

// Save writes a fresh item under id, replacing any existing one.
func (r *Repository) Save(ctx context.Context, id string, d Draft) error {
	return r.mutate(ctx, id, true, func(*domain.Item) (*domain.Item, error) {
		it := fromDraft(id, d)
		return &it, nil
	})
}

// Update merges p into the item stored under id. An absent item is created
// with the same defaults as Save.
func (r *Repository) Update(ctx context.Context, id string, p Patch) error {
	return r.mutate(ctx, id, false, func(cur *domain.Item) (*domain.Item, error) {
		base := domain.Item{ID: id, Category: domain.CategoryPending}
		if cur != nil {
			base = *cur
		}
		next := applyPatch(base, p)
		return &next, nil
	})
}

// Delete removes id. Deleting an absent item is a no-op.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.mutate(ctx, id, false, func(*domain.Item) (*domain.Item, error) {
		return nil, nil
	})
}

// mutate runs one read-modify-write for id. fn receives the current item
// (nil when absent) and returns the replacement, or nil to delete.
// A kept result is logged to history when the category changed, or always
// when logKept is set.
func (r *Repository) mutate(ctx context.Context, id string, logKept bool, fn func(cur *domain.Item) (*domain.Item, error)) error {
	items, err := r.load(ctx)
	if err != nil {
		return err
	}

	var cur *domain.Item
	if existing, ok := items[id]; ok {
		cur = &existing
	}

	next, err := fn(cur)
	if err != nil {
		return err
	}

	if next == nil {
		if cur == nil {
			return nil
		}
		delete(items, id)
		if err := r.saveAll(ctx, items); err != nil {
			return err
		}
		r.logger.Debug("item deleted", logger.String("id", id))
		return nil
	}

	next.ID = id
	if err := next.Validate(); err != nil {
		return err
	}

	items[id] = *next
	if err := r.saveAll(ctx, items); err != nil {
		return err
	}

	r.logger.Debug("item written",
		logger.String("id", id),
		logger.String("category", next.Category.String()))

	if next.Category == domain.CategoryKept && (logKept || cur == nil || cur.Category != domain.CategoryKept) {
		r.recordKept(ctx, *next)
	}
	return nil
}

func fromDraft(id string, d Draft) domain.Item {
	it := domain.Item{ID: id, Name: d.Name, Category: d.Category}
	if it.Category == "" {
		it.Category = domain.CategoryPending
	}
	if it.Category.PageScoped() {
		it.OwnerPageID = d.OwnerPageID
	}
	if it.Category == domain.CategoryDismissed {
		it.PreviousCategory = d.PreviousCategory
		if it.PreviousCategory == "" {
			it.PreviousCategory = domain.CategoryPending
		}
	}
	return it
}

func applyPatch(cur domain.Item, p Patch) domain.Item {
	out := cur
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Category != nil {
		out.Category = *p.Category
	}

	if out.Category.PageScoped() {
		if p.OwnerPageID != nil {
			out.OwnerPageID = *p.OwnerPageID
		}
	} else {
		out.OwnerPageID = ""
	}

	if out.Category == domain.CategoryDismissed {
		if p.PreviousCategory != nil {
			out.PreviousCategory = *p.PreviousCategory
		}
		if out.PreviousCategory == "" {
			out.PreviousCategory = cur.Category
			if out.PreviousCategory == domain.CategoryDismissed || out.PreviousCategory == "" {
				out.PreviousCategory = domain.CategoryPending
			}
		}
	} else {
		out.PreviousCategory = ""
	}

	if p.ExportedAs != nil {
		out.ExportedAs = *p.ExportedAs
	}
	if p.ExportedAt != nil {
		t := *p.ExportedAt
		out.ExportCount++
		out.LastExportedAt = &t
	}
	if p.ClearExport {
		out.LastExportedAt = nil
		out.ExportedAs = ""
	}
	return out
}

// ─────────────────────────────────────────────────────────────────
// Persistence
// ─────────────────────────────────────────────────────────────────

func (r *Repository) load(ctx context.Context) (map[string]domain.Item, error) {
	data, err := r.backend.Get(ctx, KeyItems)
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	items := make(map[string]domain.Item)
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}
	for id, it := range items {
		if it.ID == "" {
			it.ID = id
			items[id] = it
		}
	}
	return items, nil
}

func (r *Repository) saveAll(ctx context.Context, items map[string]domain.Item) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding items: %w", err)
	}
	if err := r.backend.Set(ctx, KeyItems, data); err != nil {
		r.logger.Error("items write rejected",
			logger.String("backend", r.backend.Name()),
			logger.Error(err))
		return fmt.Errorf("%w: %w", domain.ErrStorageWrite, err)
	}
	return nil
}
