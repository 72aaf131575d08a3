package users

import "context"

// Repo is the user store. Implementations must enforce email uniqueness themselves:
// Insert fails with errors.ErrDuplicateEmail even if a caller's pre-check passed.
type Repo interface {
	// Insert stores a new user, assigning an ID and timestamps when unset.
	Insert(ctx context.Context, user *User) error

	// GetByEmail returns errors.ErrUserNotFound when no user has the email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID returns errors.ErrUserNotFound when the ID is unknown.
	GetByID(ctx context.Context, id string) (*User, error)

	// List returns users ordered by creation time.
	List(ctx context.Context, offset, limit int) ([]*User, error)
}
