package errors

import (
	"errors"
	"fmt"
)

// Common error types for the session service
var (
	// Store errors
	ErrNotFound       = errors.New("not found")
	ErrUserNotFound   = fmt.Errorf("user %w", ErrNotFound)
	ErrDuplicateEmail = errors.New("email already registered")

	// Session errors
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrSessionNotFound  = fmt.Errorf("session %w", ErrNotFound)
	ErrSessionExpired   = errors.New("session expired")

	// Hashing errors
	ErrMalformedHash = errors.New("malformed password hash")

	// General errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// IsSessionError reports whether err means the caller simply isn't logged in.
func IsSessionError(err error) bool {
	return errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSessionExpired)
}
