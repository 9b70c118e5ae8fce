package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/models"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/permissions"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCommunityNotFound = errors.New("community not found")
	ErrAlreadyMember     = errors.New("user is already a member of this community")
)

// CommunityRepository handles communities and their memberships
type CommunityRepository interface {
	permissions.MembershipStore

	CreateCommunity(ctx context.Context, community *models.Community) error
	GetCommunity(ctx context.Context, communityID string) (*models.Community, error)
	Join(ctx context.Context, communityID, userID string) (*models.CommunityMember, error)
	ListMembers(ctx context.Context, communityID string, limit, offset int) ([]models.CommunityMember, error)
	ChangeRole(ctx context.Context, communityID, userID string, newRole models.MemberRole) error
}

type communityRepository struct {
	db *gorm.DB
}

// NewCommunityRepository creates a new community repository
func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

// CreateCommunity inserts the community and makes its creator the first admin
func (r *communityRepository) CreateCommunity(ctx context.Context, community *models.Community) error {
	if community == nil || community.CreatedBy == "" {
		return ErrInvalidInput
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(community).Error; err != nil {
			return err
		}
		return tx.Create(&models.CommunityMember{
			CommunityID: community.ID,
			UserID:      community.CreatedBy,
			Role:        models.MemberRoleAdmin,
		}).Error
	})
}

// GetCommunity gets a community by ID
func (r *communityRepository) GetCommunity(ctx context.Context, communityID string) (*models.Community, error) {
	var community models.Community
	err := r.db.WithContext(ctx).Where("id = ?", communityID).First(&community).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCommunityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &community, nil
}

// Join adds userID as a plain member
func (r *communityRepository) Join(ctx context.Context, communityID, userID string) (*models.CommunityMember, error) {
	if _, err := r.GetCommunity(ctx, communityID); err != nil {
		return nil, err
	}

	member := &models.CommunityMember{
		CommunityID: communityID,
		UserID:      userID,
		Role:        models.MemberRoleMember,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(member)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyMember
	}
	return member, nil
}

// ListMembers returns memberships with admins first, then by join time
func (r *communityRepository) ListMembers(ctx context.Context, communityID string, limit, offset int) ([]models.CommunityMember, error) {
	var members []models.CommunityMember
	err := r.db.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order("CASE role WHEN 'admin' THEN 0 WHEN 'moderator' THEN 1 ELSE 2 END").
		Order("joined_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&members).Error
	return members, err
}

// MemberRole returns permissions.ErrNotMember when there is no membership
func (r *communityRepository) MemberRole(ctx context.Context, communityID, userID string) (models.MemberRole, error) {
	var member models.CommunityMember
	err := r.db.WithContext(ctx).
		Select("role").
		Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&member).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", permissions.ErrNotMember
	}
	if err != nil {
		return "", err
	}
	return member.Role, nil
}

// AdminCount counts the admins of a community
func (r *communityRepository) AdminCount(ctx context.Context, communityID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CommunityMember{}).
		Where("community_id = ? AND role = ?", communityID, models.MemberRoleAdmin).
		Count(&count).Error
	return count, err
}

// ChangeRole sets a member's role. The last-admin rule is part of the
// UPDATE's WHERE clause so the check and the write see the same rows; on
// postgres the community's admin rows are locked first so two concurrent
// demotions cannot both pass the count.
func (r *communityRepository) ChangeRole(ctx context.Context, communityID, userID string, newRole models.MemberRole) error {
	if !newRole.Valid() {
		return ErrInvalidInput
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			var locked []string
			err := tx.Model(&models.CommunityMember{}).
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("community_id = ? AND role = ?", communityID, models.MemberRoleAdmin).
				Pluck("user_id", &locked).Error
			if err != nil {
				return fmt.Errorf("failed to lock admins: %w", err)
			}
		}

		q := tx.Model(&models.CommunityMember{}).
			Where("community_id = ? AND user_id = ?", communityID, userID)
		if newRole != models.MemberRoleAdmin {
			q = q.Where(
				"(role <> ? OR (SELECT COUNT(*) FROM community_members AS cm WHERE cm.community_id = ? AND cm.role = ?) > 1)",
				models.MemberRoleAdmin, communityID, models.MemberRoleAdmin,
			)
		}
		res := q.Updates(map[string]any{
			"role":       newRole,
			"updated_at": tx.NowFunc(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		var exists int64
		if err := tx.Model(&models.CommunityMember{}).
			Where("community_id = ? AND user_id = ?", communityID, userID).
			Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return permissions.ErrNotMember
		}
		return permissions.ErrLastAdmin
	})
}
