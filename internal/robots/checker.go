package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/temoto/robotstxt"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const maxRobotsBytes = 512 << 10

// Checker evaluates URLs against their origin's robots.txt
type Checker struct {
	client *http.Client
	cache  *Cache
	group  singleflight.Group
}

// NewChecker uses client for fetches, or a 10s-timeout client when nil
func NewChecker(cache *Cache, client *http.Client) *Checker {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Checker{client: client, cache: cache}
}

// Allowed reports whether userAgent may fetch rawURL. A missing robots.txt
// allows everything; server errors and unreachable hosts disallow
// everything. Both outcomes are cached for the full TTL.
func (c *Checker) Allowed(ctx context.Context, rawURL, userAgent string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return false, fmt.Errorf("invalid url %q", rawURL)
	}

	origin := u.Scheme + "://" + u.Host
	data, ok := c.cache.Get(origin)
	if !ok {
		v, _, _ := c.group.Do(origin, func() (interface{}, error) {
			d := c.fetch(ctx, origin)
			// A cancelled caller says nothing about the origin.
			if ctx.Err() == nil {
				c.cache.Put(origin, d)
			}
			return d, nil
		})
		data = v.(*robotstxt.RobotsData)
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return data.TestAgent(path, userAgent), nil
}

func (c *Checker) fetch(ctx context.Context, origin string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return disallowAll()
	}

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Log.Warn("robots.txt fetch failed", zap.String("origin", origin), zap.Error(err))
		return disallowAll()
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return disallowAll()
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		logger.Log.Warn("robots.txt parse failed", zap.String("origin", origin), zap.Error(err))
		return disallowAll()
	}
	return data
}

func disallowAll() *robotstxt.RobotsData {
	data, _ := robotstxt.FromStatusAndBytes(http.StatusServiceUnavailable, nil)
	return data
}
