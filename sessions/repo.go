package sessions

import "context"

// Repo defines the interface for session storage operations.
// Sessions are never deleted or updated once inserted.
type Repo interface {
	// Insert persists a new session
	Insert(ctx context.Context, session *Session) error

	// Get retrieves a session by ID, ErrSessionNotFound when absent
	Get(ctx context.Context, sessionID string) (*Session, error)

	// ListByUser returns every session owned by the user, oldest first
	ListByUser(ctx context.Context, userID string) ([]*Session, error)
}
