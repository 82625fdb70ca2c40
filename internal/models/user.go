package models

import "time"

// Roles carried on profiles.
const (
	RoleTechnicien = "technicien"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Profile is the application-side record of an authenticated user. Identity
// lives with the auth provider; only the role is ours.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsStaff reports whether the profile may use the dashboard.
func (p *Profile) IsStaff() bool {
	switch p.Role {
	case RoleTechnicien, RoleAdmin, RoleSuperAdmin:
		return p.IsActive
	}
	return false
}
