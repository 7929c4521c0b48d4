package model

import (
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a user profile record
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	Address      *string    `json:"address,omitempty"`
	PasswordHash string     `json:"-"` // Do not expose password hash in JSON responses
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// IsAdmin reports whether the user should see the admin dashboard.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserPatch holds the mutable profile fields. Nil means "leave unchanged".
type UserPatch struct {
	Address      *string
	PasswordHash *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Address == nil && p.PasswordHash == nil
}

// Identity is the authenticated principal carried by auth-state events.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// ParseRole normalizes a sign-up role. Only the two roles the session router
// understands are accepted; the legacy sign-up labels (driver, motor_owner,
// transporter) are rejected instead of being mapped to either of them.
func ParseRole(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", &ValidationError{Field: "role", Reason: "unknown role " + raw}
}
