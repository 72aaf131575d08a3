package errors_test

import (
	"errors"
	"fmt"
	"testing"

	apperrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestNotFoundFamily(t *testing.T) {
	require.True(t, errors.Is(apperrors.ErrUserNotFound, apperrors.ErrNotFound))
	require.True(t, errors.Is(apperrors.ErrSessionNotFound, apperrors.ErrNotFound))
	require.False(t, errors.Is(apperrors.ErrDuplicateEmail, apperrors.ErrNotFound))
}

func TestIsSessionError(t *testing.T) {
	require.True(t, apperrors.IsSessionError(fmt.Errorf("x: %w", apperrors.ErrInvalidSignature)))
	require.True(t, apperrors.IsSessionError(apperrors.ErrSessionNotFound))
	require.True(t, apperrors.IsSessionError(apperrors.ErrSessionExpired))
	require.False(t, apperrors.IsSessionError(apperrors.ErrUserNotFound))
	require.False(t, apperrors.IsSessionError(apperrors.ErrDuplicateEmail))
}
