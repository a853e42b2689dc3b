package user

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsStaff reports whether the role may act on any appointment, not just
// its own.
func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}

func NewRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", ErrInvalidRole
	}
	return role, nil
}
