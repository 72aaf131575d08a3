package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	apperrors "github.com/jrsteele09/go-session-auth/internal/errors"
)

// Signer signs and verifies tokens with a single algorithm.
type Signer interface {
	Sign(claims jwt.MapClaims) (string, error)

	// GetVerificationKey is a jwt.Keyfunc. Tokens signed with any other algorithm are refused.
	GetVerificationKey(token *jwt.Token) (any, error)

	GetSigningMethod() jwt.SigningMethod
}

var _ Signer = (*HMACsigner)(nil)

// HMACsigner signs with a process-wide shared secret, HS256 unless configured otherwise.
type HMACsigner struct {
	method *jwt.SigningMethodHMAC
	secret []byte
}

type HMACOption func(*HMACsigner)

// WithHMACMethod selects another HMAC variant, e.g. jwt.SigningMethodHS512.
func WithHMACMethod(method *jwt.SigningMethodHMAC) HMACOption {
	return func(h *HMACsigner) {
		if method != nil {
			h.method = method
		}
	}
}

func NewHMACSigner(secret string, opts ...HMACOption) *HMACsigner {
	h := &HMACsigner{
		method: jwt.SigningMethodHS256,
		secret: []byte(secret),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HMACsigner) Sign(claims jwt.MapClaims) (string, error) {
	signed, err := jwt.NewWithClaims(h.method, claims).SignedString(h.secret)
	if err != nil {
		return "", errors.Wrap(err, "[HMACsigner Sign]")
	}
	return signed, nil
}

func (h *HMACsigner) GetVerificationKey(token *jwt.Token) (any, error) {
	if token.Method == nil || token.Method.Alg() != h.method.Alg() {
		return nil, errors.Wrapf(apperrors.ErrInvalidSignature, "unexpected signing method %v", token.Header["alg"])
	}
	return h.secret, nil
}

func (h *HMACsigner) GetSigningMethod() jwt.SigningMethod {
	return h.method
}
