// Package discovery holds helpers for the local news and event feed.
package discovery

import (
	"regexp"
	"strings"
	"time"
)

// Item is one entry of an aggregated feed
type Item struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

var (
	nonWord    = regexp.MustCompile(`[^\p{L}\p{M}\p{N}\s]+`)
	whitespace = regexp.MustCompile(`\s+`)
)

// NormalizeTitle lowercases title, drops punctuation and collapses runs of
// whitespace, so "Road closed: MG Road!" and "road closed  mg road" match.
func NormalizeTitle(title string) string {
	t := strings.ToLower(title)
	t = nonWord.ReplaceAllString(t, "")
	t = whitespace.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// DedupeByTitle keeps the first item for each normalized title. Items whose
// title normalizes to nothing are always kept.
func DedupeByTitle(items []Item) []Item {
	seen := make(map[string]struct{}, len(items))
	out := make([]Item, 0, len(items))
	for _, item := range items {
		key := NormalizeTitle(item.Title)
		if key != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, item)
	}
	return out
}
