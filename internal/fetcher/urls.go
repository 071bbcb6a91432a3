package fetcher

import (
	"net/url"
	"regexp"
	"strings"
)

var listingURL = regexp.MustCompile(`https?://(?:[\w-]+\.)?booth\.pm/(?:[\w-]+/)?items/(\d+)`)

// ListingRef is one listing URL found in free text.
type ListingRef struct {
	URL string
	ID  string
}

// FindListings returns every listing URL in text, in order, with any
// query or fragment left off.
func FindListings(text string) []ListingRef {
	matches := listingURL.FindAllStringSubmatch(text, -1)
	refs := make([]ListingRef, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, ListingRef{URL: m[0], ID: m[1]})
	}
	return refs
}

// ExtractItemID returns the listing id in rawURL, or "" when it is not a listing URL.
func ExtractItemID(rawURL string) string {
	m := listingURL.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// ConvertToJSONURL maps a listing page URL to its JSON metadata endpoint.
// Unknown URLs get ".json" appended to their path.
func ConvertToJSONURL(rawURL string) string {
	if id := ExtractItemID(rawURL); id != "" {
		return "https://booth.pm/ja/items/" + id + ".json"
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL + ".json"
	}
	if !strings.HasSuffix(u.Path, ".json") {
		u.Path += ".json"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// ExtractName looks for a display name in a decoded metadata document,
// trying "name", then "item.name", then "title".
func ExtractName(doc map[string]any) string {
	if s, ok := doc["name"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	if item, ok := doc["item"].(map[string]any); ok {
		if s, ok := item["name"].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	if s, ok := doc["title"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return ""
}
