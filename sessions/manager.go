package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/jrsteele09/go-session-auth/users"
)

// DefaultSessionTTL is how long a new session lives.
const DefaultSessionTTL = 30 * 24 * time.Hour

// Manager creates sessions and converts between sessions and bearer tokens.
type Manager struct {
	sessionRepo   Repo
	userRepo      users.Repo
	codec         *token.Codec
	ttl           time.Duration
	enforceExpiry bool
	nowFunc       func() time.Time
}

type ManagerOption func(*Manager)

// WithTTL sets the lifetime of new sessions. Non-positive values are ignored.
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// WithExpiryEnforcement makes Resolve reject sessions whose expiry has passed.
// Off by default: a stored expiry is otherwise informational only.
func WithExpiryEnforcement(enforce bool) ManagerOption {
	return func(m *Manager) {
		m.enforceExpiry = enforce
	}
}

func NewManager(sessionRepo Repo, userRepo users.Repo, codec *token.Codec, opts ...ManagerOption) (*Manager, error) {
	if sessionRepo == nil {
		return nil, errors.New("[NewManager] session repo is required")
	}
	if userRepo == nil {
		return nil, errors.New("[NewManager] user repo is required")
	}
	if codec == nil {
		return nil, errors.New("[NewManager] token codec is required")
	}

	m := &Manager{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		codec:       codec,
		ttl:         DefaultSessionTTL,
		nowFunc:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TTL returns the lifetime given to new sessions.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create persists a new session for userID. The user's existence is not checked.
func (m *Manager) Create(ctx context.Context, userID string) (*Session, error) {
	if userID == "" {
		return nil, errors.New("[Manager Create] user id is required")
	}

	now := m.nowFunc().UTC()
	session := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.sessionRepo.Insert(ctx, session); err != nil {
		return nil, errors.Wrap(err, "[Manager Create] failed to store session")
	}
	return session, nil
}

// IssueToken returns the bearer token for the session.
func (m *Manager) IssueToken(session *Session) (string, error) {
	if session == nil {
		return "", errors.New("[Manager IssueToken] session is required")
	}
	return m.codec.Encode(session.ID)
}

// Resolve verifies the token and returns the session it references, with its owning user loaded.
func (m *Manager) Resolve(ctx context.Context, tokenString string) (*Session, error) {
	sessionID, err := m.codec.Decode(tokenString)
	if err != nil {
		return nil, err
	}

	session, err := m.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errors.Wrapf(apperrors.ErrSessionNotFound, "[Manager Resolve] session %s", sessionID)
		}
		return nil, errors.Wrap(err, "[Manager Resolve] failed to load session")
	}

	if m.enforceExpiry && session.Expired(m.nowFunc()) {
		return nil, errors.Wrapf(apperrors.ErrSessionExpired, "[Manager Resolve] session %s", sessionID)
	}

	user, err := m.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Warn().Str("sessionId", sessionID).Str("userId", session.UserID).Msg("session references a missing user")
			return nil, errors.Wrapf(apperrors.ErrSessionNotFound, "[Manager Resolve] owner of session %s", sessionID)
		}
		return nil, errors.Wrap(err, "[Manager Resolve] failed to load session user")
	}
	session.User = user
	return session, nil
}
