package models

import (
	"strings"
	"time"
)

// User roles.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleEditor     = "editor"
	RoleModerator  = "moderator"
	RoleViewer     = "viewer"
)

// Roles lists every accepted role.
var Roles = []string{RoleSuperAdmin, RoleAdmin, RoleEditor, RoleModerator, RoleViewer}

// User represents a dashboard account.
type User struct {
	ID           string     `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never expose this to the client
	Role         string     `json:"role" db:"role"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	IsStaff      bool       `json:"is_staff" db:"is_staff"`
	IsSuperuser  bool       `json:"is_superuser" db:"is_superuser"`
	DateJoined   time.Time  `json:"date_joined" db:"date_joined"`
	LastLogin    *time.Time `json:"last_login" db:"last_login"`

	// Derived, filled by PrepareForAPI.
	FullName string `json:"full_name" db:"-"`
	IsAdmin  bool   `json:"is_admin" db:"-"`
}

// Admin reports whether the user may manage site content.
func (u User) Admin() bool {
	return u.IsStaff || u.IsSuperuser || u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// PrepareForAPI fills the derived fields and strips the password hash.
func (u *User) PrepareForAPI() {
	u.PasswordHash = ""
	u.FullName = strings.TrimSpace(u.FirstName + " " + u.LastName)
	u.IsAdmin = u.Admin()
}

// UserList is the paginated users answer.
type UserList struct {
	Users   []User `json:"users"`
	Total   int    `json:"total"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

// UserFilter narrows a user listing.
type UserFilter struct {
	Page    int
	PerPage int
	Search  string
	Role    string
}
