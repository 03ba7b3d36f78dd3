package models

import "time"

// User represents a user in the system
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"` // Not serialized
	IsActive     bool       `json:"is_active"`
	IsStaff      bool       `json:"is_staff"`
	IsSuperuser  bool       `json:"is_superuser"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Profile is the public view of the authenticated user
type Profile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Profile returns the public view of u
func (u *User) Profile() Profile {
	return Profile{Email: u.Email, Name: u.Name}
}

// UserPatch carries optional profile changes; nil fields are left untouched
type UserPatch struct {
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Password *string `json:"password"`
}
