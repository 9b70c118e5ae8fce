package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType enumerates what triggered a notification
type NotificationType string

const (
	NotificationComment         NotificationType = "comment"
	NotificationReply           NotificationType = "reply"
	NotificationVote            NotificationType = "vote"
	NotificationBooking         NotificationType = "booking"
	NotificationMessage         NotificationType = "message"
	NotificationMention         NotificationType = "mention"
	NotificationCommunityInvite NotificationType = "community_invite"
	NotificationModeration      NotificationType = "moderation"
	NotificationPoll            NotificationType = "poll"
	NotificationSystem          NotificationType = "system"
)

// Valid reports whether t is a known notification type
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationComment, NotificationReply, NotificationVote, NotificationBooking,
		NotificationMessage, NotificationMention, NotificationCommunityInvite,
		NotificationModeration, NotificationPoll, NotificationSystem:
		return true
	}
	return false
}

// DefaultNotificationTTL is how long a notification stays visible
const DefaultNotificationTTL = 30 * 24 * time.Hour

// Notification is one entry in a user's inbox
type Notification struct {
	ID         string           `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string           `gorm:"type:uuid;not null;index:idx_notifications_user_created,priority:1" json:"user_id"`
	Type       NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	Title      string           `gorm:"not null" json:"title"`
	Body       string           `gorm:"type:text" json:"body"`
	Link       string           `json:"link,omitempty"`
	ActorID    *string          `gorm:"type:uuid" json:"actor_id,omitempty"`
	BatchKey   *string          `gorm:"index" json:"batch_key,omitempty"`
	BatchCount int              `gorm:"not null;default:1" json:"batch_count"`
	IsRead     bool             `gorm:"not null;default:false;index" json:"is_read"`
	ReadAt     *time.Time       `json:"read_at,omitempty"`
	ExpiresAt  time.Time        `gorm:"not null;index" json:"expires_at"`
	CreatedAt  time.Time        `gorm:"index:idx_notifications_user_created,priority:2,sort:desc" json:"created_at"`
}

// BeforeCreate fills the id and expiry when the caller left them empty
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = tx.NowFunc()
	}
	if n.ExpiresAt.IsZero() {
		n.ExpiresAt = n.CreatedAt.Add(DefaultNotificationTTL)
	}
	if n.BatchCount == 0 {
		n.BatchCount = 1
	}
	return nil
}
