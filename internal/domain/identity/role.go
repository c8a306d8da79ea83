package identity

// Role is the access level of a user account
type Role string

const (
	RoleConferente Role = "CONFERENTE"
	RoleSupervisor Role = "SUPERVISOR"
	RoleAdmin      Role = "ADMIN"
)

// IsValid checks if the role is a known Role
func (r Role) IsValid() bool {
	switch r {
	case RoleConferente, RoleSupervisor, RoleAdmin:
		return true
	}
	return false
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// CanSupervise reports whether the role may approve divergent conferences
func (r Role) CanSupervise() bool {
	return r == RoleSupervisor || r == RoleAdmin
}
