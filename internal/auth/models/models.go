package models

import (
	"time"

	id "solidarlink/pkg/domain"
)

// User is an account known to the platform.
//
// Volunteers start with Validated=false and cannot log in until an admin
// validates them. Banned users are locked out regardless of role.
type User struct {
	ID           id.UserID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         id.Role   `json:"role"`
	Validated    bool      `json:"validated"`
	Banned       bool      `json:"banned"`
	CreatedAt    time.Time `json:"created_at"`
}

// Clone returns a copy so store internals never alias caller-held state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	return &out
}

// Filter selects users for list queries. Nil booleans mean "no constraint".
type Filter struct {
	Role      id.Role
	Validated *bool
	Banned    *bool
}
