package models

import (
	"fmt"
	"time"
)

// Role classifies an account as a parent (creates help requests) or a
// supporter (claims them). A role is immutable once chosen.
type Role string

const (
	RoleUnset     Role = ""
	RoleParent    Role = "parent"
	RoleSupporter Role = "supporter"
)

// ParseRole validates a role value read from storage or a client payload.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUnset, RoleParent, RoleSupporter:
		return Role(s), nil
	}
	return RoleUnset, fmt.Errorf("unknown role %q", s)
}

// User represents an account in the system
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	Name          string
	PhotoURL      string
	EmailVerified bool
	Role          Role
	PushToken     string
	OAuthProvider string
	OAuthSubject  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PublicProfile is the subset of a user visible to non-approved counterparts
type PublicProfile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoUrl"`
}

// Public returns the profile fields safe to expose before approval.
func (u *User) Public() PublicProfile {
	return PublicProfile{ID: u.ID, Name: u.Name, PhotoURL: u.PhotoURL}
}
