// Package article holds the record types shared by the generation pipeline.
package article

import (
	"strings"
	"time"
)

// Section values stored on a record. The site shows exactly one "main"
// article per batch; that is enforced by the synthesizer, not by storage.
const (
	SectionMain = "main"
	SectionSide = "side"
	SectionList = "list"
)

// Record is a persisted article as the storage layer sees it.
type Record struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Section   string    `json:"section"`
	Tags      string    `json:"tags,omitempty"` // comma-separated
	CreatedAt time.Time `json:"created_at"`
	ImageURL  string    `json:"image_url,omitempty"`
}

// Generated is a record during synthesis, before it is reduced for export.
// It additionally carries where the illustration came from.
type Generated struct {
	Record

	ImageSource  string
	ImageLicense string
	ImageLanding string
}

// ValidSection reports whether s is one of the three known sections.
func ValidSection(s string) bool {
	return s == SectionMain || s == SectionSide || s == SectionList
}

// SplitTags splits a comma-separated tag field into trimmed non-empty tags.
func SplitTags(tags string) []string {
	var out []string
	for _, t := range strings.Split(tags, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// MergeTags appends extra tags to base, skipping case-insensitive duplicates
// and preserving first-seen order and casing.
func MergeTags(base, extra string) string {
	seen := make(map[string]bool)
	var merged []string
	for _, t := range append(SplitTags(base), SplitTags(extra)...) {
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, t)
	}
	return strings.Join(merged, ",")
}
