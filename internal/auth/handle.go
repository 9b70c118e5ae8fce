package auth

import (
	"strings"

	"github.com/google/uuid"
)

const maxHandleBase = 20

// GenerateHandle builds "slug-xxxx" from a display name, where xxxx is a
// random hex suffix and slug is cut to maxHandleBase characters.
func GenerateHandle(displayName string) string {
	return Truncate(Slugify(displayName), maxHandleBase) + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
}

// Slugify lowercases name and joins its ASCII letter and digit runs with
// single dashes. An empty result becomes "neighbour".
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}

	if b.Len() == 0 {
		return "neighbour"
	}
	return b.String()
}

// Truncate cuts a slug to at most limit bytes without leaving a trailing dash
func Truncate(slug string, limit int) string {
	if len(slug) <= limit {
		return slug
	}
	return strings.TrimRight(slug[:limit], "-")
}
