package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline-crm/fieldline-crm/internal/shared"
)

func TestHasRoleTotalOrder(t *testing.T) {
	known := []string{RoleAdmin, RoleManager, RoleTechnician, RoleUser}

	for _, r := range known {
		assert.True(t, HasRole(r, RoleUser), "every known role should satisfy the lowest role, got false for %s", r)
		assert.True(t, HasRole(r, r), "role check must be reflexive for %s", r)
	}

	assert.True(t, HasRole(RoleAdmin, RoleManager))
	assert.True(t, HasRole(RoleManager, RoleTechnician))
	assert.False(t, HasRole(RoleTechnician, RoleManager))
	assert.False(t, HasRole(RoleUser, RoleTechnician))
	assert.False(t, HasRole(RoleManager, RoleAdmin))
}

func TestHasRoleUnknownRoleDeniesEverything(t *testing.T) {
	for _, unknown := range []string{"", "superuser", "root", "Admin"} {
		for _, required := range Roles() {
			assert.False(t, HasRole(unknown, required), "unknown role %q must not satisfy %q", unknown, required)
		}
		assert.False(t, HasRole(unknown, unknown))
	}
}

func TestHasPermissionAdminWildcard(t *testing.T) {
	assert.True(t, HasPermission(RoleAdmin, shared.PermLeadsEdit))
	// Permissions never enumerated in any table are still granted to admin.
	assert.True(t, HasPermission(RoleAdmin, "totally.made.up"))
	assert.True(t, HasPermission(RoleAdmin, ""))
}

func TestHasPermissionUnknownRole(t *testing.T) {
	for _, p := range []string{shared.PermLeadsView, shared.PermUsersEdit, "anything"} {
		assert.False(t, HasPermission("", p))
		assert.False(t, HasPermission("superuser", p))
	}
}

func TestHasPermissionByRole(t *testing.T) {
	cases := []struct {
		role string
		perm string
		want bool
	}{
		{RoleManager, shared.PermQuotesSend, true},
		{RoleManager, shared.PermUsersEdit, false},
		{RoleTechnician, shared.PermWorkOrdersEdit, true},
		{RoleTechnician, shared.PermWorkOrdersAssign, false},
		{RoleTechnician, shared.PermInvoicesEdit, false},
		{RoleUser, shared.PermLeadsView, true},
		{RoleUser, shared.PermLeadsEdit, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HasPermission(tc.role, tc.perm), "%s / %s", tc.role, tc.perm)
	}
}

func TestPermissions(t *testing.T) {
	require.Nil(t, Permissions("nobody"))
	require.Contains(t, Permissions(RoleAdmin), PermissionWildcard)

	perms := Permissions(RoleUser)
	require.NotEmpty(t, perms)
	assert.NotContains(t, perms, PermissionWildcard)

	// Returned slice is a copy; mutating it must not leak into the tables.
	perms[0] = "tampered"
	assert.NotContains(t, Permissions(RoleUser), "tampered")
}

func TestRank(t *testing.T) {
	assert.Greater(t, Rank(RoleAdmin), Rank(RoleManager))
	assert.Greater(t, Rank(RoleManager), Rank(RoleTechnician))
	assert.Greater(t, Rank(RoleTechnician), Rank(RoleUser))
	assert.Zero(t, Rank("mystery"))
}
