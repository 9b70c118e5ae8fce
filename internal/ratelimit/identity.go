package ratelimit

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAction is used for requests outside /api/.
const DefaultAction = "page"

// PartitionKey derives the identity a request is counted under.
//
// The bearer token is decoded WITHOUT verifying its signature. The result is
// only a bucket name for counting requests and must never be used to make an
// access-control decision: anyone can mint a token with any subject.
func PartitionKey(r *http.Request) string {
	if sub := unverifiedSubject(r); sub != "" {
		return "user:" + sub
	}
	return "ip:" + ClientIP(r)
}

// ClientIP returns the first X-Forwarded-For entry, then X-Real-IP, then "unknown".
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return "unknown"
}

// Action returns the first path segment after /api/, or DefaultAction.
func Action(path string) string {
	rest, ok := strings.CutPrefix(path, "/api/")
	if !ok {
		return DefaultAction
	}
	segment, _, _ := strings.Cut(rest, "/")
	if segment == "" {
		return DefaultAction
	}
	return segment
}

func unverifiedSubject(r *http.Request) string {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	raw = strings.TrimSpace(raw)
	if strings.Count(raw, ".") != 2 {
		return ""
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return ""
	}
	for _, field := range []string{"sub", "user_id"} {
		if s, ok := claims[field].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
