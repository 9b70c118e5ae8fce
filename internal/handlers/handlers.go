package handlers

import (
	"context"
	"time"

	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/discovery"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/notifications"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/permissions"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/repository"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/uploads"
)

// DefaultUploadCompleteTimeout bounds reassembly when no timeout is configured
const DefaultUploadCompleteTimeout = 120 * time.Second

// ArticleFetcher is satisfied by discovery.Fetcher
type ArticleFetcher interface {
	FetchArticle(ctx context.Context, rawURL string) (*discovery.Article, error)
}

// NotificationSweeper is satisfied by notifications.Sweeper
type NotificationSweeper interface {
	RunOnce(ctx context.Context) (int64, error)
}

// Handlers contains all HTTP handlers for the API except authentication
type Handlers struct {
	notifications *notifications.Service
	uploads       *uploads.Service
	communities   repository.CommunityRepository
	guard         *permissions.Guard
	articles      ArticleFetcher
	sweeper       NotificationSweeper

	uploadCompleteTimeout time.Duration
}

// NewHandlers creates a new handlers instance
func NewHandlers(notificationService *notifications.Service, uploadService *uploads.Service) *Handlers {
	return &Handlers{
		notifications:         notificationService,
		uploads:               uploadService,
		uploadCompleteTimeout: DefaultUploadCompleteTimeout,
	}
}

// SetCommunities sets the membership store and the guard that reads it
func (h *Handlers) SetCommunities(repo repository.CommunityRepository, guard *permissions.Guard) {
	h.communities = repo
	h.guard = guard
}

// SetArticleFetcher enables the discovery endpoints
func (h *Handlers) SetArticleFetcher(f ArticleFetcher) {
	h.articles = f
}

// SetSweeper enables the cron-triggered expiry sweep. A nil sweeper, typed
// or not, leaves the route answering 503.
func (h *Handlers) SetSweeper(s NotificationSweeper) {
	if sw, ok := s.(*notifications.Sweeper); ok && sw == nil {
		s = nil
	}
	h.sweeper = s
}

// SetUploadCompleteTimeout overrides the reassembly deadline
func (h *Handlers) SetUploadCompleteTimeout(d time.Duration) {
	if d > 0 {
		h.uploadCompleteTimeout = d
	}
}
