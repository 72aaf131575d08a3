package token

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	apperrors "github.com/jrsteele09/go-session-auth/internal/errors"
)

// sessionIDClaim is the only claim a session token carries.
const sessionIDClaim = "id"

// Codec turns session identifiers into signed bearer tokens and back.
// Tokens carry no expiry: the stored session is the only source of expiry.
type Codec struct {
	signer Signer
	parser *jwt.Parser
}

// NewCodec creates a codec signing with the given signer.
func NewCodec(signer Signer) (*Codec, error) {
	if signer == nil {
		return nil, errors.New("[NewCodec] signer is required")
	}
	return &Codec{
		signer: signer,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{signer.GetSigningMethod().Alg()})),
	}, nil
}

// NewHMACCodec creates a codec over an HS256 signer. The secret must not be empty.
func NewHMACCodec(secret string) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidConfig, "[NewHMACCodec] signing secret is required")
	}
	return NewCodec(NewHMACSigner(secret))
}

// Encode signs {"id": sessionID}. The output is deterministic for a given id and secret.
func (c *Codec) Encode(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("[Codec Encode] session id is required")
	}
	signed, err := c.signer.Sign(jwt.MapClaims{sessionIDClaim: sessionID})
	if err != nil {
		return "", errors.Wrap(err, "[Codec Encode]")
	}
	return signed, nil
}

// Decode verifies the token and returns the session id it references.
// Every failure is reported as ErrInvalidSignature.
func (c *Codec) Decode(tokenString string) (string, error) {
	if tokenString == "" {
		return "", errors.Wrap(apperrors.ErrInvalidSignature, "[Codec Decode] empty token")
	}

	claims := jwt.MapClaims{}
	parsed, err := c.parser.ParseWithClaims(tokenString, claims, c.signer.GetVerificationKey)
	if err != nil {
		return "", errors.Wrapf(apperrors.ErrInvalidSignature, "[Codec Decode] %v", err)
	}
	if !parsed.Valid {
		return "", errors.Wrap(apperrors.ErrInvalidSignature, "[Codec Decode] token not valid")
	}

	sessionID, _ := claims[sessionIDClaim].(string)
	if sessionID == "" {
		return "", errors.Wrap(apperrors.ErrInvalidSignature, "[Codec Decode] token has no session id")
	}
	return sessionID, nil
}
