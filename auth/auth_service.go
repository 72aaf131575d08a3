package auth

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/internal/metrics"
	"github.com/jrsteele09/go-session-auth/internal/utils"
	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/jrsteele09/go-session-auth/users"
)

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users    users.Repo    // Repository for user data
	Sessions sessions.Repo // Repository for session data
}

// ExternalIdentity is a profile resolved by a third-party provider.
type ExternalIdentity struct {
	Email     string
	FirstName string
	LastName  string
}

// Service registers users, logs them in and resolves their sessions.
type Service struct {
	repos     Repos
	sessions  *sessions.Manager
	hasher    *users.PasswordHasher
	validator *Validator
	metrics   metrics.MetricsCollector
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithMetrics records outcomes on the given collector.
func WithMetrics(collector metrics.MetricsCollector) ServiceOption {
	return func(s *Service) {
		if collector != nil {
			s.metrics = collector
		}
	}
}

// WithValidator replaces the default validator.
func WithValidator(v *Validator) ServiceOption {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(repos Repos, manager *sessions.Manager, hasher *users.PasswordHasher, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewService] Sessions repo is required")
	}
	if manager == nil {
		return nil, errors.New("[NewService] session manager is required")
	}
	if hasher == nil {
		return nil, errors.New("[NewService] password hasher is required")
	}

	s := &Service{
		repos:     repos,
		sessions:  manager,
		hasher:    hasher,
		validator: NewValidator(),
		metrics:   metrics.Nop{},
	}

	for _, opt := range options {
		opt(s)
	}

	return s, nil
}

// NormalizeEmail trims and lowercases an address before it reaches a store.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates the input, hashes the password and creates the user.
// Invalid input is returned as FieldErrors with a nil user.
func (s *Service) Register(ctx context.Context, input RegistrationInput) (*users.User, FieldErrors, error) {
	input.Email = NormalizeEmail(input.Email)

	fe, err := s.validator.ValidateRegistration(ctx, input, s.repos.Users)
	if err != nil {
		s.metrics.RecordRegistration(metrics.ResultError)
		return nil, FieldErrors{}, errors.Wrap(err, "[Service Register]")
	}
	if !fe.Empty() {
		s.metrics.RecordRegistration(metrics.ResultInvalid)
		return nil, fe, nil
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.metrics.RecordRegistration(metrics.ResultError)
		return nil, FieldErrors{}, errors.Wrap(err, "[Service Register]")
	}

	user := &users.User{
		Email:        input.Email,
		PasswordHash: utils.Ptr(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
	}
	if err := s.repos.Users.Insert(ctx, user); err != nil {
		s.metrics.RecordRegistration(metrics.ResultError)
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			return nil, FieldErrors{}, errors.Wrapf(apperrors.ErrDuplicateEmail, "[Service Register] %s", input.Email)
		}
		return nil, FieldErrors{}, errors.Wrap(err, "[Service Register] failed to store user")
	}

	s.metrics.RecordRegistration(metrics.ResultSuccess)
	log.Info().Str("userId", user.ID).Msg("user registered")
	return user, FieldErrors{}, nil
}

// Login checks the credentials and creates a session. The returned session carries its user.
// Unknown accounts and wrong passwords are FieldErrors, not errors.
func (s *Service) Login(ctx context.Context, input LoginInput) (*sessions.Session, FieldErrors, error) {
	input.Email = NormalizeEmail(input.Email)

	fe := s.validator.ValidateLogin(input)
	if !fe.Empty() {
		s.metrics.RecordLogin(metrics.ResultInvalid)
		return nil, fe, nil
	}

	user, err := s.repos.Users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			fe.Set(FieldEmail, msgUnknownAccount)
			s.metrics.RecordLogin(metrics.ResultInvalid)
			return nil, fe, nil
		}
		s.metrics.RecordLogin(metrics.ResultError)
		return nil, FieldErrors{}, errors.Wrap(err, "[Service Login] failed to load user")
	}

	// Accounts created from an external identity have no password
	if !user.HasPassword() {
		fe.Set(FieldPassword, msgWrongPassword)
		s.metrics.RecordLogin(metrics.ResultInvalid)
		return nil, fe, nil
	}

	match, err := s.hasher.Verify(input.Password, utils.Value(user.PasswordHash))
	if err != nil {
		log.Err(err).Str("userId", user.ID).Msg("stored password hash is corrupt")
		s.metrics.RecordLogin(metrics.ResultError)
		return nil, FieldErrors{}, errors.Wrap(err, "[Service Login]")
	}
	if !match {
		fe.Set(FieldPassword, msgWrongPassword)
		s.metrics.RecordLogin(metrics.ResultInvalid)
		return nil, fe, nil
	}

	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		s.metrics.RecordLogin(metrics.ResultError)
		return nil, FieldErrors{}, errors.Wrap(err, "[Service Login]")
	}
	session.User = user

	s.metrics.RecordLogin(metrics.ResultSuccess)
	s.metrics.RecordSessionCreated(metrics.SourcePassword)
	return session, FieldErrors{}, nil
}

// LoginOrCreateFromExternalIdentity returns the user with the identity's email, creating one
// without a password when none exists. An existing user is returned unchanged.
func (s *Service) LoginOrCreateFromExternalIdentity(ctx context.Context, identity ExternalIdentity) (*users.User, error) {
	email := NormalizeEmail(identity.Email)
	if email == "" {
		return nil, errors.New("[Service LoginOrCreateFromExternalIdentity] identity has no email")
	}

	existing, err := s.repos.Users.GetByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, errors.Wrap(err, "[Service LoginOrCreateFromExternalIdentity] failed to load user")
	}

	user := &users.User{
		Email:     email,
		FirstName: strings.TrimSpace(identity.FirstName),
		LastName:  strings.TrimSpace(identity.LastName),
	}
	if err := s.repos.Users.Insert(ctx, user); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicateEmail) {
			return nil, errors.Wrap(err, "[Service LoginOrCreateFromExternalIdentity] failed to store user")
		}
		// Lost a race with a concurrent first login
		winner, getErr := s.repos.Users.GetByEmail(ctx, email)
		if getErr != nil {
			return nil, errors.Wrap(getErr, "[Service LoginOrCreateFromExternalIdentity] failed to reload user")
		}
		return winner, nil
	}

	log.Info().Str("userId", user.ID).Msg("user created from external identity")
	return user, nil
}

// StartExternalSession resolves the identity to a user and opens a session for it.
func (s *Service) StartExternalSession(ctx context.Context, identity ExternalIdentity) (*sessions.Session, error) {
	user, err := s.LoginOrCreateFromExternalIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service StartExternalSession]")
	}
	session.User = user

	s.metrics.RecordSessionCreated(metrics.SourceExternal)
	return session, nil
}

// IssueToken returns the bearer token for a session.
func (s *Service) IssueToken(session *sessions.Session) (string, error) {
	return s.sessions.IssueToken(session)
}

// ResolveToken returns the session a bearer token refers to, with its user loaded.
func (s *Service) ResolveToken(ctx context.Context, tokenString string) (*sessions.Session, error) {
	session, err := s.sessions.Resolve(ctx, tokenString)
	s.metrics.RecordTokenResolve(resolveResult(err))
	return session, err
}

// ListUsers pages through all users.
func (s *Service) ListUsers(ctx context.Context, offset, limit int) ([]*users.User, error) {
	if offset < 0 {
		offset = 0
	}
	list, err := s.repos.Users.List(ctx, offset, limit)
	if err != nil {
		return nil, errors.Wrap(err, "[Service ListUsers]")
	}
	return list, nil
}

// ListSessions returns the sessions owned by a user, oldest first.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]*sessions.Session, error) {
	list, err := s.repos.Sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service ListSessions]")
	}
	return list, nil
}

func resolveResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, apperrors.ErrInvalidSignature):
		return metrics.ResultInvalidSignature
	case errors.Is(err, apperrors.ErrSessionExpired):
		return metrics.ResultExpired
	case errors.Is(err, apperrors.ErrNotFound):
		return metrics.ResultNotFound
	default:
		return metrics.ResultError
	}
}
