// Package post holds the content records produced by a build: one JSON
// artifact per publishable post plus the aggregate index listing.
package post

import (
	"sort"
	"time"
)

// Meta is the validated, normalized front-matter of one post. Control
// flags (draft, noPublish, unlisted) are stripped before storage.
type Meta struct {
	Title       string   `json:"title"`
	Written     string   `json:"writtenDate"` // RFC 3339
	Subtitle    string   `json:"subtitle,omitempty"`
	Series      string   `json:"series,omitempty"`
	Description string   `json:"description,omitempty"`
	Categories  []string `json:"categories,omitempty"`
}

// Record is the per-post JSON artifact written as <identity>.json.
// Never mutated after creation within a build.
type Record struct {
	Identity string `json:"identity"`
	HTML     string `json:"html"`
	Meta     Meta   `json:"meta"`
	Unlisted bool   `json:"unlisted,omitempty"`
}

// IndexEntry is a Record with its HTML body stripped.
type IndexEntry struct {
	Identity string `json:"identity"`
	Meta     Meta   `json:"meta"`
}

// BuildIndex reduces the current record set to the aggregate listing:
// unlisted records are dropped, bodies are stripped, and entries sort
// descending by written date. Equal dates keep no particular order.
func BuildIndex(records []Record) []IndexEntry {
	entries := make([]IndexEntry, 0, len(records))
	for _, r := range records {
		if r.Unlisted {
			continue
		}
		entries = append(entries, IndexEntry{Identity: r.Identity, Meta: r.Meta})
	}

	sort.Slice(entries, func(i, j int) bool {
		return writtenTime(entries[i].Meta.Written).After(writtenTime(entries[j].Meta.Written))
	})
	return entries
}

// writtenTime parses a stored written date. Freshly validated records
// always carry RFC 3339; a hand-edited reused artifact may not, and
// sorts last rather than failing the build.
func writtenTime(written string) time.Time {
	ts, err := time.Parse(time.RFC3339, written)
	if err != nil {
		return time.Time{}
	}
	return ts
}
