// Package notifications stores user inboxes, pages through them and merges
// client-held pages.
package notifications

import (
	"fmt"
	"strings"

	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/models"
)

// Filter selects notifications by read state
type Filter string

const (
	FilterAll    Filter = "all"
	FilterUnread Filter = "unread"
	FilterRead   Filter = "read"
)

// ParseFilter accepts "", all, unread and read
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterUnread, FilterRead:
		return f, nil
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// Page is one fetched window of a user's notifications
type Page struct {
	Items      []models.Notification `json:"items"`
	HasMore    bool                  `json:"has_more"`
	NextCursor string                `json:"next_cursor,omitempty"`
	Limit      int                   `json:"limit"`
	Filter     Filter                `json:"filter"`
}

// Merge flattens pages in order, keeping the first occurrence of every id.
// Overlapping windows caused by inserts between fetches collapse silently,
// so merging a page with itself changes nothing.
func Merge(pages []Page) []models.Notification {
	total := 0
	for _, p := range pages {
		total += len(p.Items)
	}

	seen := make(map[string]struct{}, total)
	merged := make([]models.Notification, 0, total)
	for _, p := range pages {
		for _, n := range p.Items {
			if _, dup := seen[n.ID]; dup {
				continue
			}
			seen[n.ID] = struct{}{}
			merged = append(merged, n)
		}
	}
	return merged
}
