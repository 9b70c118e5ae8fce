package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemberRole is a user's role inside one community
type MemberRole string

const (
	MemberRoleMember    MemberRole = "member"
	MemberRoleModerator MemberRole = "moderator"
	MemberRoleAdmin     MemberRole = "admin"
)

// Valid reports whether r is one of the known membership roles
func (r MemberRole) Valid() bool {
	switch r {
	case MemberRoleMember, MemberRoleModerator, MemberRoleAdmin:
		return true
	}
	return false
}

// Community is a local group users can join
type Community struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Location    string    `gorm:"type:text" json:"location"`
	CreatedBy   string    `gorm:"type:uuid;not null;index" json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate assigns a uuid so inserts work without database-side defaults
func (c *Community) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CommunityMember links a user to a community with a role
type CommunityMember struct {
	CommunityID string     `gorm:"primaryKey;type:uuid" json:"community_id"`
	UserID      string     `gorm:"primaryKey;type:uuid;index" json:"user_id"`
	Role        MemberRole `gorm:"type:varchar(16);not null;default:member;index" json:"role"`
	JoinedAt    time.Time  `gorm:"autoCreateTime" json:"joined_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
