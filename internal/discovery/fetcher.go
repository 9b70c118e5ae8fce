package discovery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// UserAgent identifies the fetcher to origin servers and robots.txt
const UserAgent = "TheglocalBot/1.0 (+https://theglocal.in/bot)"

const maxArticleBytes = 5 << 20

var (
	ErrDisallowed = errors.New("fetch disallowed by robots.txt")
	ErrFetch      = errors.New("article fetch failed")
)

// RobotsChecker is satisfied by robots.Checker
type RobotsChecker interface {
	Allowed(ctx context.Context, rawURL, userAgent string) (bool, error)
}

// Article is the cleaned readable body of a page
type Article struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Fetcher downloads pages and extracts their main content
type Fetcher struct {
	robots    RobotsChecker
	client    *http.Client
	sanitizer *bluemonday.Policy
}

// NewFetcher uses client for page fetches, or a 30s-timeout client when nil
func NewFetcher(robots RobotsChecker, client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	policy := bluemonday.UGCPolicy()
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)
	return &Fetcher{robots: robots, client: client, sanitizer: policy}
}

// FetchArticle checks robots.txt, downloads rawURL and returns its sanitised
// readable content.
func (f *Fetcher) FetchArticle(ctx context.Context, rawURL string) (_ *Article, err error) {
	ctx, span := telemetry.StartSpan(ctx, "discovery.fetch_article", attribute.String("url.full", rawURL))
	defer func() { telemetry.EndSpan(span, err) }()

	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	allowed, err := f.robots.Allowed(ctx, rawURL, UserAgent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if !allowed {
		return nil, ErrDisallowed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArticleBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: extract: %v", ErrFetch, err)
	}

	return &Article{
		URL:     rawURL,
		Title:   article.Title,
		Content: f.sanitizer.Sanitize(article.Content),
	}, nil
}
