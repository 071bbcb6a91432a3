package domain

import (
	"fmt"
	"time"
)

// Item is one tracked marketplace listing.
//
// Which optional fields are set depends on Category:
//
//	kept       OwnerPageID and PreviousCategory empty
//	pending    OwnerPageID set, PreviousCategory empty
//	dismissed  OwnerPageID set, PreviousCategory set (kept or pending)
//
// Values are built with the per-category constructors or the transition
// methods, which all return items satisfying Validate.
type Item struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the listing id, e.g. "4821093".
	ID string `json:"id"`

	// ─────────────────────────────
	// Presentation
	// ─────────────────────────────

	// Name is the display name. May be empty until resolved.
	Name string `json:"name"`

	// ─────────────────────────────
	// Lifecycle
	// ─────────────────────────────

	Category Category `json:"category"`

	// OwnerPageID is the page the item is scoped to. Empty for kept items.
	OwnerPageID string `json:"ownerPageId,omitempty"`

	// PreviousCategory is the category a dismissed item restores to.
	PreviousCategory Category `json:"previousCategory,omitempty"`

	// ─────────────────────────────
	// Export bookkeeping
	// ─────────────────────────────

	ExportCount    int        `json:"exportCount,omitempty"`
	LastExportedAt *time.Time `json:"lastExportedAt,omitempty"`

	// ExportedAs records the category the item was in when a
	// single-category export promoted it.
	ExportedAs Category `json:"exportedAs,omitempty"`
}

// NewKept builds a globally visible item.
func NewKept(id, name string) (Item, error) {
	it := Item{ID: id, Name: name, Category: CategoryKept}
	return it, it.Validate()
}

// NewPending builds an item scoped to pageID.
func NewPending(id, name, pageID string) (Item, error) {
	it := Item{ID: id, Name: name, Category: CategoryPending, OwnerPageID: pageID}
	return it, it.Validate()
}

// NewDismissed builds a dismissed item that restores to prev.
func NewDismissed(id, name, pageID string, prev Category) (Item, error) {
	it := Item{ID: id, Name: name, Category: CategoryDismissed, OwnerPageID: pageID, PreviousCategory: prev}
	return it, it.Validate()
}

// Validate checks the category/field invariants.
func (it Item) Validate() error {
	if it.ID == "" {
		return NewValidationError("id", "must not be empty")
	}
	if err := ValidateCategory(it.Category); err != nil {
		return err
	}
	switch it.Category {
	case CategoryKept:
		if it.OwnerPageID != "" {
			return NewValidationError("ownerPageId", fmt.Sprintf("item %s: kept items are not page scoped", it.ID))
		}
		if it.PreviousCategory != "" {
			return NewValidationError("previousCategory", fmt.Sprintf("item %s: only dismissed items carry a previous category", it.ID))
		}
	case CategoryPending:
		if it.OwnerPageID == "" {
			return NewValidationError("ownerPageId", fmt.Sprintf("item %s: pending items need an owner page", it.ID))
		}
		if it.PreviousCategory != "" {
			return NewValidationError("previousCategory", fmt.Sprintf("item %s: only dismissed items carry a previous category", it.ID))
		}
	case CategoryDismissed:
		if it.OwnerPageID == "" {
			return NewValidationError("ownerPageId", fmt.Sprintf("item %s: dismissed items need an owner page", it.ID))
		}
		if it.PreviousCategory != CategoryKept && it.PreviousCategory != CategoryPending {
			return NewValidationError("previousCategory", fmt.Sprintf("item %s: dismissed items restore to kept or pending, got %q", it.ID, it.PreviousCategory))
		}
	}
	return nil
}

// VisibleOn reports whether the item belongs to the page set of pageID.
func (it Item) VisibleOn(pageID string) bool {
	if it.Category == CategoryKept {
		return true
	}
	return it.Category.PageScoped() && it.OwnerPageID == pageID
}

// DisplayName falls back to a synthetic label when no name is known.
func (it Item) DisplayName() string {
	if it.Name != "" {
		return it.Name
	}
	return "Item " + it.ID
}

// Dismiss moves the item to dismissed on pageID, remembering where it came from.
func (it Item) Dismiss(pageID string) (Item, error) {
	prev := it.Category
	if prev == CategoryDismissed {
		prev = it.PreviousCategory
	}
	if prev == "" {
		prev = CategoryPending
	}
	out := it
	out.Category = CategoryDismissed
	out.PreviousCategory = prev
	out.OwnerPageID = pageID
	return out, out.Validate()
}

// Restore returns a dismissed item to its previous category.
// Only restoring to pending keeps a page owner.
func (it Item) Restore(pageID string) (Item, error) {
	if it.Category != CategoryDismissed {
		return it, NewValidationError("category", fmt.Sprintf("item %s is %s, not dismissed", it.ID, it.Category))
	}
	target := it.PreviousCategory
	if target == "" {
		target = CategoryPending
	}
	out := it
	out.Category = target
	out.PreviousCategory = ""
	out.OwnerPageID = ""
	if target == CategoryPending {
		out.OwnerPageID = pageID
	}
	return out, out.Validate()
}

// MarkExported records an export at now. Pending items are promoted to kept.
func (it Item) MarkExported(now time.Time) Item {
	out := it
	if out.Category == CategoryPending {
		out.Category = CategoryKept
		out.OwnerPageID = ""
	}
	out.ExportCount++
	t := now
	out.LastExportedAt = &t
	return out
}
