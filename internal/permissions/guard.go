package permissions

import (
	"context"
	"errors"
	"fmt"

	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/models"
)

var (
	// ErrNotMember means the user has no membership in the community
	ErrNotMember = errors.New("user is not a member of this community")
	// ErrLastAdmin means the change would leave the community without an admin
	ErrLastAdmin = errors.New("community must keep at least one admin")
)

// MembershipStore reads community memberships
type MembershipStore interface {
	// MemberRole returns ErrNotMember when no membership exists.
	MemberRole(ctx context.Context, communityID, userID string) (models.MemberRole, error)
	AdminCount(ctx context.Context, communityID string) (int64, error)
}

// Guard answers permission questions for one request
type Guard struct {
	store       MembershipStore
	superAdmins *SuperAdminPolicy
}

// NewGuard creates a guard
func NewGuard(store MembershipStore, superAdmins *SuperAdminPolicy) *Guard {
	return &Guard{store: store, superAdmins: superAdmins}
}

// IsSuperAdmin delegates to the configured policy
func (g *Guard) IsSuperAdmin(user *models.User) bool {
	return g.superAdmins.IsSuperAdmin(user)
}

// IsCommunityAdmin is true iff the user's membership role is admin
func (g *Guard) IsCommunityAdmin(ctx context.Context, communityID, userID string) (bool, error) {
	role, err := g.store.MemberRole(ctx, communityID, userID)
	if errors.Is(err, ErrNotMember) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load membership: %w", err)
	}
	return role == models.MemberRoleAdmin, nil
}

// EffectiveRole ranks a user for one community
func (g *Guard) EffectiveRole(ctx context.Context, user *models.User, communityID string) (Role, error) {
	if g.IsSuperAdmin(user) {
		return RoleSuperAdmin, nil
	}
	if user == nil || communityID == "" {
		return RoleUser, nil
	}
	admin, err := g.IsCommunityAdmin(ctx, communityID, user.ID)
	if err != nil {
		return RoleUser, err
	}
	if admin {
		return RoleCommunityAdmin, nil
	}
	return RoleUser, nil
}

// CanChangeRole reports whether userID may be moved to newRole without
// breaking the last-admin invariant. Non-members return ErrNotMember.
func (g *Guard) CanChangeRole(ctx context.Context, communityID, userID string, newRole models.MemberRole) (bool, error) {
	if newRole == models.MemberRoleAdmin {
		return true, nil
	}
	current, err := g.store.MemberRole(ctx, communityID, userID)
	if err != nil {
		return false, err
	}
	if current != models.MemberRoleAdmin {
		return true, nil
	}
	count, err := g.store.AdminCount(ctx, communityID)
	if err != nil {
		return false, fmt.Errorf("failed to count admins: %w", err)
	}
	return AllowsRoleChange(current, newRole, count), nil
}
