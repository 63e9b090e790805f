package enums

// Role names an access level carried in auth token claims.
type Role string

const (
	RoleCustomer     Role = "customer"
	RoleOrderManager Role = "order_manager"
	RoleSuperAdmin   Role = "super_admin"
)

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsAdmin reports whether the role grants back-office access.
func (r Role) IsAdmin() bool {
	return r == RoleOrderManager || r == RoleSuperAdmin
}
