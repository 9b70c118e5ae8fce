// Package permissions implements the platform role hierarchy and the
// community governance guards.
package permissions

import (
	"fmt"
	"strings"

	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/models"
)

// Role is a platform-level rank. Higher values include every lower one.
type Role int

const (
	RoleUser Role = iota
	RoleCommunityAdmin
	RoleSuperAdmin
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleCommunityAdmin:
		return "community_admin"
	case RoleSuperAdmin:
		return "super_admin"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// ParseRole converts the wire name of a role
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, nil
	case "community_admin":
		return RoleCommunityAdmin, nil
	case "super_admin":
		return RoleSuperAdmin, nil
	}
	return RoleUser, fmt.Errorf("unknown role %q", s)
}

// HasPermission reports whether actual ranks at least as high as required
func HasPermission(actual, required Role) bool {
	return actual >= required
}

// SuperAdminPolicy decides platform-wide admin rights
type SuperAdminPolicy struct {
	emails map[string]struct{}
}

// NewSuperAdminPolicy builds a policy from an email allow-list.
// Entries are compared case-insensitively after trimming.
func NewSuperAdminPolicy(allowList []string) *SuperAdminPolicy {
	p := &SuperAdminPolicy{emails: make(map[string]struct{}, len(allowList))}
	for _, email := range allowList {
		if e := normalizeEmail(email); e != "" {
			p.emails[e] = struct{}{}
		}
	}
	return p
}

// IsSuperAdmin is true when the user's flag is set or the email is allow-listed
func (p *SuperAdminPolicy) IsSuperAdmin(user *models.User) bool {
	if user == nil {
		return false
	}
	if user.IsSuperAdmin {
		return true
	}
	if p == nil {
		return false
	}
	_, ok := p.emails[normalizeEmail(user.Email)]
	return ok
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AllowsRoleChange is the last-admin rule: moving an admin to any other
// role needs at least one other admin to remain.
func AllowsRoleChange(current, next models.MemberRole, adminCount int64) bool {
	if next == models.MemberRoleAdmin {
		return true
	}
	if current != models.MemberRoleAdmin {
		return true
	}
	return adminCount > 1
}
