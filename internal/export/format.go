package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// Format is an export text layout.
type Format string

const (
	FormatList     Format = "list"     // display names
	FormatURLs     Format = "urls"     // one listing URL per line
	FormatDetailed Format = "detailed" // "name - url"
	FormatCSV      Format = "csv"      // Name,URL,Category
	FormatJSON     Format = "json"     // indented array of items
)

var ValidFormats = []Format{FormatList, FormatURLs, FormatDetailed, FormatCSV, FormatJSON}

// ParseFormat accepts any ValidFormats value; empty means list.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatList, nil
	}
	for _, v := range ValidFormats {
		if f == v {
			return f, nil
		}
	}
	return "", domain.NewValidationError("format", fmt.Sprintf("invalid format %q: must be one of list, urls, detailed, csv, json", s))
}

// Render lays items out in format. listingBase prefixes listing URLs.
func Render(items []domain.Item, format Format, listingBase string) (string, error) {
	switch format {
	case FormatList, "":
		lines := make([]string, len(items))
		for i, it := range items {
			lines[i] = it.DisplayName()
		}
		return strings.Join(lines, "\n"), nil

	case FormatURLs:
		lines := make([]string, len(items))
		for i, it := range items {
			lines[i] = domain.ListingURL(listingBase, it.ID)
		}
		return strings.Join(lines, "\n"), nil

	case FormatDetailed:
		lines := make([]string, len(items))
		for i, it := range items {
			name := it.Name
			if name == "" {
				name = "Unnamed"
			}
			lines[i] = name + " - " + domain.ListingURL(listingBase, it.ID)
		}
		return strings.Join(lines, "\n"), nil

	case FormatCSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		_ = w.Write([]string{"Name", "URL", "Category"})
		for _, it := range items {
			_ = w.Write([]string{it.Name, domain.ListingURL(listingBase, it.ID), it.Category.String()})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return "", fmt.Errorf("writing csv: %w", err)
		}
		return strings.TrimRight(buf.String(), "\n"), nil

	case FormatJSON:
		if items == nil {
			items = []domain.Item{}
		}
		data, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding json: %w", err)
		}
		return string(data), nil

	default:
		return "", domain.NewValidationError("format", fmt.Sprintf("unsupported format %q", format))
	}
}
