// Package rbac decides, for a role and a requested capability, whether access
// is granted. Role definitions are static configuration: only the assignment
// of a role to a user is dynamic and lives in the database.
package rbac

import "github.com/fieldline-crm/fieldline-crm/internal/shared"

// Known roles, ordered by rank.
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleTechnician = "technician"
	RoleUser       = "user"
)

// PermissionWildcard grants every permission. Only admin carries it.
const PermissionWildcard = "*"

// roleRanks is the role hierarchy. An unknown role ranks 0 and therefore
// loses every comparison against a defined role.
var roleRanks = map[string]int{
	RoleAdmin:      100,
	RoleManager:    75,
	RoleTechnician: 50,
	RoleUser:       25,
}

var rolePermissions = map[string][]string{
	RoleAdmin: {PermissionWildcard},
	RoleManager: {
		shared.PermUsersView,
		shared.PermLeadsView, shared.PermLeadsEdit,
		shared.PermContactsView, shared.PermContactsEdit,
		shared.PermAccountsView, shared.PermAccountsEdit,
		shared.PermQuotesView, shared.PermQuotesEdit, shared.PermQuotesSend,
		shared.PermWorkOrdersView, shared.PermWorkOrdersEdit, shared.PermWorkOrdersAssign,
		shared.PermInvoicesView, shared.PermInvoicesEdit, shared.PermInvoicesSend,
		shared.PermDashboardView,
	},
	RoleTechnician: {
		shared.PermLeadsView,
		shared.PermContactsView,
		shared.PermAccountsView,
		shared.PermQuotesView,
		shared.PermWorkOrdersView, shared.PermWorkOrdersEdit,
		shared.PermInvoicesView,
		shared.PermDashboardView,
	},
	RoleUser: {
		shared.PermLeadsView,
		shared.PermContactsView,
		shared.PermAccountsView,
		shared.PermQuotesView,
		shared.PermWorkOrdersView,
		shared.PermInvoicesView,
		shared.PermDashboardView,
	},
}

// permissionSets is derived once at init for O(1) membership checks.
var permissionSets = func() map[string]map[string]struct{} {
	sets := make(map[string]map[string]struct{}, len(rolePermissions))
	for role, perms := range rolePermissions {
		set := make(map[string]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		sets[role] = set
	}
	return sets
}()

// KnownRole reports whether role is a member of the closed role set.
func KnownRole(role string) bool {
	_, ok := roleRanks[role]
	return ok
}

// Rank returns the hierarchy rank for a role; unknown roles rank 0.
func Rank(role string) int {
	return roleRanks[role]
}

// HasPermission reports whether role grants the permission. Admin carries the
// wildcard and is granted unconditionally. Unknown roles are denied. The
// function is total: absence of a role is a normal deny, not an error.
func HasPermission(role, permission string) bool {
	if role == RoleAdmin {
		return true
	}
	set, ok := permissionSets[role]
	if !ok {
		return false
	}
	_, ok = set[permission]
	return ok
}

// HasRole reports whether role ranks at or above requiredRole. Both lookups
// default to rank 0. The second clause tightens the bare rank comparison: an
// unknown role never satisfies any requirement, not even another unknown one.
func HasRole(role, requiredRole string) bool {
	return roleRanks[role] >= roleRanks[requiredRole] && roleRanks[role] > 0
}

// Permissions returns the permission names granted to a role, the wildcard
// included for admin. Unknown roles yield nil.
func Permissions(role string) []string {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// Roles returns all defined role names ordered by descending rank.
func Roles() []string {
	return []string{RoleAdmin, RoleManager, RoleTechnician, RoleUser}
}
