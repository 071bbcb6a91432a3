package domain

import (
	"fmt"
	"strings"
)

// Category is the lifecycle bucket an item lives in.
type Category string

const (
	// CategoryKept items are committed for export and visible on every page.
	CategoryKept Category = "kept"
	// CategoryPending items were discovered or added on one page and not yet exported.
	CategoryPending Category = "pending"
	// CategoryDismissed items were removed from consideration on one page.
	CategoryDismissed Category = "dismissed"
)

// ValidCategories lists every accepted category in display order.
var ValidCategories = []Category{CategoryKept, CategoryPending, CategoryDismissed}

// legacy names written by earlier clients
var categoryAliases = map[string]Category{
	"saved":    CategoryKept,
	"unsaved":  CategoryPending,
	"new":      CategoryPending,
	"excluded": CategoryDismissed,
}

// ValidateCategory returns an error when c is not one of ValidCategories.
func ValidateCategory(c Category) error {
	for _, v := range ValidCategories {
		if c == v {
			return nil
		}
	}
	return NewValidationError("category", fmt.Sprintf("invalid category %q: must be one of kept, pending, dismissed", c))
}

// ParseCategory accepts canonical and legacy names, case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if alias, ok := categoryAliases[s]; ok {
		return alias, nil
	}
	c := Category(s)
	if err := ValidateCategory(c); err != nil {
		return "", err
	}
	return c, nil
}

// PageScoped reports whether items of this category belong to a single page.
func (c Category) PageScoped() bool {
	return c == CategoryPending || c == CategoryDismissed
}

// UnmarshalText normalises legacy names when decoding stored data. An
// unknown name is kept as is so one bad record does not make the whole
// items value unreadable; Validate reports it.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		*c = Category(b)
		return nil
	}
	*c = parsed
	return nil
}

func (c Category) String() string { return string(c) }
