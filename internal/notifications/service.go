package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/metrics"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/models"
)

var (
	ErrUnauthenticated = errors.New("no authenticated user")
	ErrInvalidInput    = errors.New("invalid notification")
)

// CreateInput is what producers send to Notify
type CreateInput struct {
	UserID   string
	Type     models.NotificationType
	Title    string
	Body     string
	Link     string
	ActorID  string
	BatchKey string
}

// Service applies request-level rules on top of a Repository
type Service struct {
	repo Repository
}

// NewService creates a service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns one page of userID's inbox
func (s *Service) List(ctx context.Context, userID string, q PageQuery) (*Page, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	return s.repo.ListPage(ctx, userID, q)
}

// Summary returns ErrUnauthenticated without a user; any other failure is
// wrapped so callers can treat it as internal.
func (s *Service) Summary(ctx context.Context, userID string) (*Summary, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	summary, err := s.repo.Summary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("notification summary: %w", err)
	}
	return summary, nil
}

// Notify validates and stores one notification
func (s *Service) Notify(ctx context.Context, in CreateInput) (*models.Notification, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidInput)
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidInput, in.Type)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" || len(title) > 200 {
		return nil, fmt.Errorf("%w: title must be 1-200 characters", ErrInvalidInput)
	}

	n := &models.Notification{
		UserID: in.UserID,
		Type:   in.Type,
		Title:  title,
		Body:   in.Body,
		Link:   in.Link,
	}
	if in.ActorID != "" {
		n.ActorID = &in.ActorID
	}
	if in.BatchKey != "" {
		n.BatchKey = &in.BatchKey
	}

	batched, err := s.repo.Create(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	mode := "inserted"
	if batched {
		mode = "batched"
	}
	metrics.Get().NotificationsCreatedTotal.WithLabelValues(string(in.Type), mode).Inc()
	return n, nil
}

// MarkRead marks the given ids read and returns how many changed
func (s *Service) MarkRead(ctx context.Context, userID string, ids []string) (int64, error) {
	if userID == "" {
		return 0, ErrUnauthenticated
	}
	return s.repo.MarkRead(ctx, userID, ids)
}

// MarkAllRead marks the whole inbox read
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, ErrUnauthenticated
	}
	return s.repo.MarkAllRead(ctx, userID)
}

// Delete removes one notification
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	return s.repo.Delete(ctx, userID, id)
}
