package auth

// Role represents a portal user role.
type Role string

const (
	// RoleOwner can view statements for their own properties.
	RoleOwner Role = "owner"
	// RoleManager can generate statements and run send actions.
	RoleManager Role = "manager"
	// RoleAdmin can do everything, including configuration.
	RoleAdmin Role = "admin"
)

// NormalizeRole validates and normalizes a role string.
func NormalizeRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleOwner, RoleManager, RoleAdmin:
		return Role(value), true
	default:
		return "", false
	}
}

// RoleAtLeast returns true when role satisfies required role.
func RoleAtLeast(role Role, required Role) bool {
	return roleRank(role) >= roleRank(required)
}

func roleRank(role Role) int {
	switch role {
	case RoleOwner:
		return 1
	case RoleManager:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}
