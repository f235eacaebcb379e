package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// User is a login account stored in the login table. EntityID links
// student and teacher accounts to their profile row.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Account      string    `db:"account" json:"account"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	EntityID     *string   `db:"entity_id" json:"entity_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   int64    `json:"user_id"`
	Role     UserRole `json:"role"`
	EntityID string   `json:"entity_id,omitempty"`
	Account  string   `json:"account"`
	FullName string   `json:"full_name"`
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Option is an id/label pair used to populate selection lists.
type Option struct {
	ID    string `db:"id" json:"id"`
	Label string `db:"label" json:"label"`
}
