package domain

import dErrors "solidarlink/pkg/domainerrors"

// Role identifies what an authenticated actor is allowed to do.
type Role string

const (
	RoleCitizen   Role = "CITIZEN"
	RoleVolunteer Role = "VOLUNTEER"
	RoleAdmin     Role = "ADMIN"
)

var validRoles = map[Role]bool{
	RoleCitizen:   true,
	RoleVolunteer: true,
	RoleAdmin:     true,
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// IsAdmin reports whether the role carries admin privilege.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}
