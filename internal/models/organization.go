package models

import "time"

// Membership roles, lowest to highest privilege.
const (
	RoleMember   = "member"
	RoleDirector = "director"
	RoleAdmin    = "admin"
)

// Organization is a tenant (one choir).
type Organization struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an account that can belong to several organizations.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsSuperadmin bool      `json:"is_superadmin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Membership ties a user to an organization with a role.
type Membership struct {
	OrganizationID int64  `json:"organization_id"`
	UserID         int64  `json:"user_id"`
	Role           string `json:"role"`
}

// CanManage reports whether the role may act on behalf of other members.
func (m Membership) CanManage() bool {
	return m.Role == RoleDirector || m.Role == RoleAdmin
}

// Event is a rehearsal, concert or any other occasion members check in to.
type Event struct {
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organization_id"`
	Title          string    `json:"title"`
	Location       string    `json:"location,omitempty"`
	StartsAt       time.Time `json:"starts_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}
