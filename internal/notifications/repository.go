package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/models"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var ErrNotFound = errors.New("notification not found")

// PageQuery selects one page of a user's inbox
type PageQuery struct {
	Cursor string
	Limit  int
	Filter Filter
}

// LatestRef identifies the newest live notification
type LatestRef struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary is the unread count and newest item, read from one snapshot
type Summary struct {
	UnreadCount int64      `json:"unread_count"`
	Latest      *LatestRef `json:"latest"`
}

// Repository persists notifications
type Repository interface {
	ListPage(ctx context.Context, userID string, q PageQuery) (*Page, error)
	Summary(ctx context.Context, userID string) (*Summary, error)
	// Create inserts n or folds it into an open batch; batched reports which.
	Create(ctx context.Context, n *models.Notification) (batched bool, err error)
	MarkRead(ctx context.Context, userID string, ids []string) (int64, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) now() time.Time {
	return r.db.NowFunc()
}

// ListPage pages by (created_at DESC, id DESC). Expired rows are hidden.
func (r *gormRepository) ListPage(ctx context.Context, userID string, q PageQuery) (*Page, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	if q.Filter == "" {
		q.Filter = FilterAll
	}

	query := r.db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, r.now())

	switch q.Filter {
	case FilterUnread:
		query = query.Where("is_read = ?", false)
	case FilterRead:
		query = query.Where("is_read = ?", true)
	}

	if q.Cursor != "" {
		createdAt, id, err := DecodeCursor(q.Cursor)
		if err != nil {
			return nil, err
		}
		query = query.Where("(created_at < ? OR (created_at = ? AND id < ?))", createdAt, createdAt, id)
	}

	var items []models.Notification
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(q.Limit + 1).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	page := &Page{Limit: q.Limit, Filter: q.Filter}
	if len(items) > q.Limit {
		items = items[:q.Limit]
		page.HasMore = true
		last := items[len(items)-1]
		page.NextCursor = EncodeCursor(last.CreatedAt, last.ID)
	}
	page.Items = items
	return page, nil
}

// summaryQuery answers both halves of the summary in one statement, so the
// count and the latest row come from the same snapshot.
const summaryQuery = `
SELECT c.unread_count AS unread_count, n.id AS latest_id, n.created_at AS latest_created_at
FROM (
	SELECT COUNT(*) AS unread_count
	FROM notifications
	WHERE user_id = ? AND is_read = ? AND expires_at > ?
) AS c
LEFT JOIN notifications AS n ON n.id = (
	SELECT l.id
	FROM notifications AS l
	WHERE l.user_id = ? AND l.expires_at > ?
	ORDER BY l.created_at DESC, l.id DESC
	LIMIT 1
)`

type summaryRow struct {
	UnreadCount     int64
	LatestID        *string
	LatestCreatedAt *time.Time
}

// Summary returns the unread count and latest live notification
func (r *gormRepository) Summary(ctx context.Context, userID string) (*Summary, error) {
	now := r.now()

	var row summaryRow
	err := r.db.WithContext(ctx).
		Raw(summaryQuery, userID, false, now, userID, now).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load notification summary: %w", err)
	}

	summary := &Summary{UnreadCount: row.UnreadCount}
	if row.LatestID != nil && row.LatestCreatedAt != nil {
		summary.Latest = &LatestRef{ID: *row.LatestID, CreatedAt: row.LatestCreatedAt.UTC()}
	}
	return summary, nil
}

// Create folds n into the user's open batch with the same key when there is
// one, otherwise inserts it. An open batch is any unread row with the key,
// expired or not, matching the open-batch unique index; folding renews its
// expiry. The fold is one UPDATE; an insert that loses the race on the index
// is retried as a fold.
func (r *gormRepository) Create(ctx context.Context, n *models.Notification) (bool, error) {
	if n == nil || n.UserID == "" {
		return false, fmt.Errorf("notification needs a user")
	}
	if n.BatchKey == nil || *n.BatchKey == "" {
		n.BatchKey = nil
		return false, r.db.WithContext(ctx).Create(n).Error
	}

	folded, err := r.foldIntoBatch(ctx, n)
	if err != nil || folded {
		return folded, err
	}

	err = r.db.WithContext(ctx).Create(n).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, err
	}
	folded, err = r.foldIntoBatch(ctx, n)
	if err != nil {
		return false, err
	}
	if !folded {
		return false, fmt.Errorf("notification batch %q for user %s neither inserted nor folded", *n.BatchKey, n.UserID)
	}
	return true, nil
}

func (r *gormRepository) foldIntoBatch(ctx context.Context, n *models.Notification) (bool, error) {
	now := r.now()
	ttl := models.DefaultNotificationTTL
	if !n.ExpiresAt.IsZero() && !n.CreatedAt.IsZero() {
		ttl = n.ExpiresAt.Sub(n.CreatedAt)
	}

	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND batch_key = ? AND is_read = ?", n.UserID, *n.BatchKey, false).
		Updates(map[string]any{
			"batch_count": gorm.Expr("batch_count + 1"),
			"title":       n.Title,
			"body":        n.Body,
			"link":        n.Link,
			"actor_id":    n.ActorID,
			"created_at":  now,
			"expires_at":  now.Add(ttl),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to update notification batch: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	var latest models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND batch_key = ? AND is_read = ?", n.UserID, *n.BatchKey, false).
		Order("created_at DESC").
		First(&latest).Error
	if err != nil {
		return true, fmt.Errorf("failed to reload notification batch: %w", err)
	}
	*n = latest
	return true, nil
}

// MarkRead marks the given notifications of userID as read
func (r *gormRepository) MarkRead(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND id IN ? AND is_read = ?", userID, ids, false).
		Updates(map[string]any{"is_read": true, "read_at": r.now()})
	return res.RowsAffected, res.Error
}

// MarkAllRead marks every unread notification of userID as read
func (r *gormRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": r.now()})
	return res.RowsAffected, res.Error
}

// Delete removes one notification owned by userID
func (r *gormRepository) Delete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired removes every notification past its expiry
func (r *gormRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", r.now()).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
