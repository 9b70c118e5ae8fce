package permissions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/models"
)

type fakeStore struct {
	roles map[string]models.MemberRole // "community/user" -> role
	err   error
}

func (f *fakeStore) MemberRole(_ context.Context, communityID, userID string) (models.MemberRole, error) {
	if f.err != nil {
		return "", f.err
	}
	role, ok := f.roles[communityID+"/"+userID]
	if !ok {
		return "", ErrNotMember
	}
	return role, nil
}

func (f *fakeStore) AdminCount(_ context.Context, communityID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for key, role := range f.roles {
		if role == models.MemberRoleAdmin && len(key) > len(communityID) && key[:len(communityID)+1] == communityID+"/" {
			n++
		}
	}
	return n, nil
}

func TestHasPermissionTotalOrder(t *testing.T) {
	roles := []Role{RoleUser, RoleCommunityAdmin, RoleSuperAdmin}
	for _, a := range roles {
		for _, r := range roles {
			assert.Equal(t, int(a) >= int(r), HasPermission(a, r), "%s vs %s", a, r)
		}
	}
	assert.True(t, HasPermission(RoleSuperAdmin, RoleUser))
	assert.False(t, HasPermission(RoleUser, RoleCommunityAdmin))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Super_Admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleSuperAdmin, r)

	_, err = ParseRole("owner")
	assert.Error(t, err)
	assert.Equal(t, "community_admin", RoleCommunityAdmin.String())
}

func TestIsSuperAdmin(t *testing.T) {
	policy := NewSuperAdminPolicy([]string{" Admin@Theglocal.in ", ""})

	assert.True(t, policy.IsSuperAdmin(&models.User{Email: "admin@theglocal.in"}))
	assert.True(t, policy.IsSuperAdmin(&models.User{Email: "  ADMIN@theglocal.IN"}))
	assert.True(t, policy.IsSuperAdmin(&models.User{Email: "x@y.z", IsSuperAdmin: true}))
	assert.False(t, policy.IsSuperAdmin(&models.User{Email: "someone@theglocal.in"}))
	assert.False(t, policy.IsSuperAdmin(&models.User{Email: ""}))
	assert.False(t, policy.IsSuperAdmin(nil))

	var none *SuperAdminPolicy
	assert.True(t, none.IsSuperAdmin(&models.User{IsSuperAdmin: true}))
	assert.False(t, none.IsSuperAdmin(&models.User{Email: "admin@theglocal.in"}))
}

func TestAllowsRoleChange(t *testing.T) {
	tests := []struct {
		name    string
		current models.MemberRole
		next    models.MemberRole
		admins  int64
		want    bool
	}{
		{"sole admin demoted", models.MemberRoleAdmin, models.MemberRoleMember, 1, false},
		{"sole admin to moderator", models.MemberRoleAdmin, models.MemberRoleModerator, 1, false},
		{"one of two admins demoted", models.MemberRoleAdmin, models.MemberRoleMember, 2, true},
		{"admin stays admin", models.MemberRoleAdmin, models.MemberRoleAdmin, 1, true},
		{"member promoted", models.MemberRoleMember, models.MemberRoleAdmin, 1, true},
		{"member to moderator", models.MemberRoleMember, models.MemberRoleModerator, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AllowsRoleChange(tt.current, tt.next, tt.admins))
		})
	}
}

func TestGuardCommunityAdmin(t *testing.T) {
	store := &fakeStore{roles: map[string]models.MemberRole{
		"c1/alice": models.MemberRoleAdmin,
		"c1/bob":   models.MemberRoleModerator,
	}}
	g := NewGuard(store, NewSuperAdminPolicy(nil))
	ctx := context.Background()

	ok, err := g.IsCommunityAdmin(ctx, "c1", "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.IsCommunityAdmin(ctx, "c1", "bob")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = g.IsCommunityAdmin(ctx, "c1", "carol")
	require.NoError(t, err)
	assert.False(t, ok)

	role, err := g.EffectiveRole(ctx, &models.User{ID: "alice"}, "c1")
	require.NoError(t, err)
	assert.Equal(t, RoleCommunityAdmin, role)

	role, err = g.EffectiveRole(ctx, &models.User{ID: "zed", IsSuperAdmin: true}, "c1")
	require.NoError(t, err)
	assert.Equal(t, RoleSuperAdmin, role)
}

func TestGuardStoreFailure(t *testing.T) {
	g := NewGuard(&fakeStore{err: errors.New("db down")}, nil)

	_, err := g.IsCommunityAdmin(context.Background(), "c1", "alice")
	assert.Error(t, err)
}

func TestCanChangeRoleLastAdmin(t *testing.T) {
	store := &fakeStore{roles: map[string]models.MemberRole{
		"c1/alice": models.MemberRoleAdmin,
		"c1/bob":   models.MemberRoleMember,
		"c2/alice": models.MemberRoleAdmin,
		"c2/carol": models.MemberRoleAdmin,
	}}
	g := NewGuard(store, nil)
	ctx := context.Background()

	ok, err := g.CanChangeRole(ctx, "c1", "alice", models.MemberRoleMember)
	require.NoError(t, err)
	assert.False(t, ok, "sole admin cannot be demoted")

	ok, err = g.CanChangeRole(ctx, "c1", "bob", models.MemberRoleAdmin)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.CanChangeRole(ctx, "c2", "alice", models.MemberRoleMember)
	require.NoError(t, err)
	assert.True(t, ok, "another admin remains")

	_, err = g.CanChangeRole(ctx, "c1", "nobody", models.MemberRoleMember)
	assert.ErrorIs(t, err, ErrNotMember)
}
