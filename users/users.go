package users

import (
	"time"
)

type User struct {
	ID           string    `json:"id,omitempty"`        // Unique identifier for the user
	Email        string    `json:"email,omitempty"`     // User's email address, unique across the store
	PasswordHash *string   `json:"-"`                   // bcrypt hash, nil for accounts created from an external identity - never serialize
	FirstName    string    `json:"firstName,omitempty"` // First name of the user
	LastName     string    `json:"lastName,omitempty"`  // Last name of the user
	CreatedAt    time.Time `json:"createdAt,omitempty"` // Date and time when the user registered
	UpdatedAt    time.Time `json:"updatedAt,omitempty"` // Last time the record changed
}

// HasPassword reports whether the account can use password login.
// Users created from an external identity have no hash until one is set elsewhere.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != nil && *u.PasswordHash != ""
}

// Clone returns a copy that shares no pointers with u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.PasswordHash != nil {
		hash := *u.PasswordHash
		c.PasswordHash = &hash
	}
	return &c
}
