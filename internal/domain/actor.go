package domain

// Role is one of the three platform actor roles.
type Role string

const (
	RoleMother Role = "mother"
	RoleCHW    Role = "chw"
	RoleNurse  Role = "nurse"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleMother, RoleCHW, RoleNurse:
		return true
	}
	return false
}

// Actor is the resolved identity behind a request. The ID is the profile ID
// for the role (mothers.id, chws.id, nurses.id in the identity service).
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	Name string `json:"name,omitempty"`
}
