package util

import (
	"strconv"
	"strings"
)

// ParseInt parses a string to an integer, returning defaultValue if parsing fails
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return val
	}
	return defaultValue
}

// ClampLimit parses a page size and bounds it to [1, max].
func ClampLimit(s string, defaultValue, max int) int {
	n := ParseInt(s, defaultValue)
	if n <= 0 {
		return defaultValue
	}
	if n > max {
		return max
	}
	return n
}

// SplitCSV splits a comma-separated list, trimming blanks and dropping empties
func SplitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
