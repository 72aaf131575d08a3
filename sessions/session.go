package sessions

import (
	"time"

	"github.com/jrsteele09/go-session-auth/users"
)

// Session is proof that a user authenticated at a point in time.
// ExpiresAt is fixed at creation.
type Session struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	ExpiresAt time.Time   `json:"expiresAt"`
	CreatedAt time.Time   `json:"createdAt"`
	User      *users.User `json:"-"` // Owning user, populated by Manager.Resolve and Service.Login
}

// Expired reports whether the session's expiry has passed at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Clone returns a copy without the user back-reference.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.User = nil
	return &c
}
