package users

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/jrsteele09/go-session-auth/internal/errors"
)

// DefaultHashCost matches the work factor the service has always shipped with.
const DefaultHashCost = 10

// MaxPasswordBytes is the longest input bcrypt uses. Longer passwords are
// truncated in both Hash and Verify, so only the first 72 bytes count.
const MaxPasswordBytes = 72

// PasswordHasher salts and hashes passwords with bcrypt.
// bcrypt generates a fresh random salt on every Hash call.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher with the given bcrypt cost. Zero selects DefaultHashCost.
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost == 0 {
		cost = DefaultHashCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.Wrapf(apperrors.ErrInvalidConfig, "[NewPasswordHasher] bcrypt cost %d outside [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &PasswordHasher{cost: cost}, nil
}

// Cost returns the configured bcrypt work factor.
func (h *PasswordHasher) Cost() int {
	return h.cost
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(passwordBytes(password), h.cost)
	if err != nil {
		return "", errors.Wrap(err, "[PasswordHasher Hash] failed to hash password")
	}
	return string(bytes), nil
}

// Verify compares a plaintext password with a stored hash.
// A mismatch is (false, nil). A hash that bcrypt cannot parse means the stored
// record is corrupt and is reported as ErrMalformedHash.
func (h *PasswordHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), passwordBytes(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, errors.Wrapf(apperrors.ErrMalformedHash, "[PasswordHasher Verify] %v", err)
	}
}

func passwordBytes(password string) []byte {
	b := []byte(password)
	if len(b) > MaxPasswordBytes {
		b = b[:MaxPasswordBytes]
	}
	return b
}
