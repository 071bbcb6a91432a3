package domain

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// HistoryTimeLayout is the layout of HistoryEntry.Time.
const HistoryTimeLayout = "2006-01-02 15:04:05"

// DefaultListingBaseURL prefixes listing ids in history records and url exports.
const DefaultListingBaseURL = "https://booth.pm/ja/items/"

// HistoryEntry is one record of the append-only kept log.
type HistoryEntry struct {
	Title      string `json:"title"`
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Time       string `json:"time"`
	URL        string `json:"url"`
	Free       bool   `json:"free"`
	Registered bool   `json:"registered"`
}

// ListingURL joins base and id. An empty base uses DefaultListingBaseURL.
func ListingURL(base, id string) string {
	if base == "" {
		base = DefaultListingBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + id
}

// NewHistoryEntry records it becoming kept at now, in UTC.
func NewHistoryEntry(it Item, now time.Time, listingBase string) HistoryEntry {
	return HistoryEntry{
		Title:      it.Name,
		ID:         it.ID,
		Filename:   "",
		Time:       now.UTC().Format(HistoryTimeLayout),
		URL:        ListingURL(listingBase, it.ID),
		Free:       true,
		Registered: false,
	}
}

// UpsertHistory drops any prior record for e.ID and appends e.
func UpsertHistory(log []HistoryEntry, e HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(log)+1)
	for _, prev := range log {
		if prev.ID != e.ID {
			out = append(out, prev)
		}
	}
	return append(out, e)
}

// HistoryGroup is the per-id summary used by grouped history exports.
type HistoryGroup struct {
	Title string   `json:"title"`
	ID    int64    `json:"id"`
	Files []string `json:"files"`
}

// GroupHistory collapses entries by id, keeping the newest title and every
// distinct filename. Entries with non-numeric ids are skipped.
func GroupHistory(log []HistoryEntry) []HistoryGroup {
	type acc struct {
		group  HistoryGroup
		newest string
		seen   map[string]bool
	}
	byID := make(map[int64]*acc)
	for _, e := range log {
		id, err := strconv.ParseInt(e.ID, 10, 64)
		if err != nil {
			continue
		}
		a, ok := byID[id]
		if !ok {
			a = &acc{group: HistoryGroup{ID: id, Files: []string{}}, seen: map[string]bool{}}
			byID[id] = a
		}
		if e.Time >= a.newest {
			a.newest = e.Time
			a.group.Title = e.Title
		}
		if e.Filename != "" && !a.seen[e.Filename] {
			a.seen[e.Filename] = true
			a.group.Files = append(a.group.Files, e.Filename)
		}
	}

	out := make([]HistoryGroup, 0, len(byID))
	for _, a := range byID {
		out = append(out, a.group)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
