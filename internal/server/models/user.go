package models

import "time"

// Role is the closed set of access roles a user can hold.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleAgent      Role = "agent"
	RoleTechnician Role = "technician"
)

// DefaultRole is assigned on registration when none is requested.
const DefaultRole = RoleAgent

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RoleAgent, RoleTechnician}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleTechnician:
		return true
	}
	return false
}

// User is a stored credential record. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
