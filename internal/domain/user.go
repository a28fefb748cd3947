package domain

import "time"

// Role enumerates workspace member roles.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleAgent    Role = "AGENT"
	RoleCustomer Role = "CUSTOMER"
)

// IsStaff reports whether the role belongs to helpdesk staff.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleAgent
}

// User is a workspace member: an admin, an agent, or a customer.
type User struct {
	ID          string
	WorkspaceID string
	Email       string
	FullName    string
	Role        Role
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
