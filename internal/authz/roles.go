package authz

const (
	RoleVendor     = "vendor"
	RoleSuperadmin = "superadmin"
)

// RoleFor is evaluated at token issuance; roles are never stored.
func RoleFor(isAdmin bool) string {
	if isAdmin {
		return RoleSuperadmin
	}
	return RoleVendor
}

func IsElevated(role string) bool {
	return role == RoleSuperadmin
}
