package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a Theglocal account
type User struct {
	ID           string  `gorm:"primaryKey;type:uuid" json:"id"`
	Email        string  `gorm:"uniqueIndex;not null" json:"email"`
	Handle       string  `gorm:"uniqueIndex;not null" json:"handle"`
	DisplayName  string  `gorm:"not null" json:"display_name"`
	PasswordHash *string `gorm:"type:text" json:"-"`
	Location     string  `gorm:"type:text" json:"location"`

	// Explicit platform-wide admin flag; the SUPER_ADMIN_EMAILS allow-list
	// grants the same rank without touching this column.
	IsSuperAdmin bool `gorm:"default:false" json:"is_super_admin"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a uuid so inserts work without database-side defaults
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
