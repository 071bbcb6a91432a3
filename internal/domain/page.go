package domain

import (
	"regexp"
	"sort"
	"strings"
)

var numericID = regexp.MustCompile(`^\d+$`)

// ValidateManualEntry checks a user supplied id/name pair.
// The existence check is left to the caller since it needs the store.
func ValidateManualEntry(id, name string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return NewValidationError("id", "item id is required")
	}
	if strings.TrimSpace(name) == "" {
		return NewValidationError("name", "item name is required")
	}
	if !numericID.MatchString(id) {
		return NewValidationError("id", "item id must contain digits only")
	}
	return nil
}

// PageSet filters items down to what pageID can see: every kept item plus
// the pending and dismissed items it owns.
func PageSet(items map[string]Item, pageID string) map[string]Item {
	out := make(map[string]Item, len(items))
	for id, it := range items {
		if it.VisibleOn(pageID) {
			out[id] = it
		}
	}
	return out
}

// Partition groups items by category. Each group is sorted by id.
type Partition struct {
	Kept      []Item
	Pending   []Item
	Dismissed []Item
}

func PartitionItems(items map[string]Item) Partition {
	var p Partition
	for _, it := range items {
		switch it.Category {
		case CategoryKept:
			p.Kept = append(p.Kept, it)
		case CategoryPending:
			p.Pending = append(p.Pending, it)
		case CategoryDismissed:
			p.Dismissed = append(p.Dismissed, it)
		}
	}
	SortByID(p.Kept)
	SortByID(p.Pending)
	SortByID(p.Dismissed)
	return p
}

// SortByID orders numeric ids numerically, falling back to lexical order.
func SortByID(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i].ID, items[j].ID
		if len(a) != len(b) && numericID.MatchString(a) && numericID.MatchString(b) {
			return len(a) < len(b)
		}
		return a < b
	})
}
