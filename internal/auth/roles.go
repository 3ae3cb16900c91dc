package auth

import "slices"

// Role is a caller's access level.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// Roles is ordered by privilege: each role also holds every permission of the
// roles before it.
var Roles = []Role{RoleViewer, RoleOperator, RoleAdmin}

// NormalizeRole reports whether value names a role.
func NormalizeRole(value string) (Role, bool) {
	role := Role(value)
	if !slices.Contains(Roles, role) {
		return "", false
	}
	return role, true
}

// RoleAtLeast reports whether role covers required. Unknown roles cover nothing.
func RoleAtLeast(role Role, required Role) bool {
	have := slices.Index(Roles, role)
	return have >= 0 && have >= slices.Index(Roles, required)
}
