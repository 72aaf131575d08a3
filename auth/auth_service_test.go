package auth_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-session-auth/auth"
	apperrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/internal/metrics"
	"github.com/jrsteele09/go-session-auth/internal/utils"
	"github.com/jrsteele09/go-session-auth/sessions"
	fakesessionrepo "github.com/jrsteele09/go-session-auth/sessions/repofake"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/jrsteele09/go-session-auth/users"
	fakeuserrepo "github.com/jrsteele09/go-session-auth/users/repofake"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	secretStr        = "1234"
	testUserEmail    = "john@example.com"
	testUserPassword = "reactqlrocks"
)

// testFixture holds all test dependencies
type testFixture struct {
	userRepo    users.Repo
	sessionRepo *fakesessionrepo.FakeSessionRepo
	manager     *sessions.Manager
	service     *auth.Service
	now         time.Time
}

func newTestFixture(t *testing.T, userRepo users.Repo, opts ...auth.ServiceOption) *testFixture {
	t.Helper()

	if userRepo == nil {
		userRepo = fakeuserrepo.NewFakeUserRepo()
	}
	f := &testFixture{
		userRepo:    userRepo,
		sessionRepo: fakesessionrepo.NewFakeSessionRepo(),
		now:         time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	codec, err := token.NewHMACCodec(secretStr)
	require.NoError(t, err)

	f.manager, err = sessions.NewManager(f.sessionRepo, f.userRepo, codec, sessions.WithNowFunc(func() time.Time { return f.now }))
	require.NoError(t, err)

	hasher, err := users.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	f.service, err = auth.NewService(auth.Repos{Users: f.userRepo, Sessions: f.sessionRepo}, f.manager, hasher, opts...)
	require.NoError(t, err)
	return f
}

func (f *testFixture) registerJohn(t *testing.T) *users.User {
	t.Helper()
	user, fe, err := f.service.Register(context.Background(), auth.RegistrationInput{
		Email:     testUserEmail,
		Password:  testUserPassword,
		FirstName: "John",
		LastName:  "Doe",
	})
	require.NoError(t, err)
	require.True(t, fe.Empty(), fe.Error())
	return user
}

// racingUserRepo hides existing users from the first GetByEmail, as if a concurrent
// insert landed between the check and the write.
type racingUserRepo struct {
	*fakeuserrepo.FakeUserRepo
	mu     sync.Mutex
	hidden bool
}

func (r *racingUserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	r.mu.Lock()
	hide := !r.hidden
	r.hidden = true
	r.mu.Unlock()
	if hide {
		return nil, apperrors.ErrUserNotFound
	}
	return r.FakeUserRepo.GetByEmail(ctx, email)
}

// brokenUserRepo fails every call.
type brokenUserRepo struct{ err error }

func (b brokenUserRepo) Insert(context.Context, *users.User) error { return b.err }
func (b brokenUserRepo) GetByEmail(context.Context, string) (*users.User, error) {
	return nil, b.err
}
func (b brokenUserRepo) GetByID(context.Context, string) (*users.User, error) { return nil, b.err }
func (b brokenUserRepo) List(context.Context, int, int) ([]*users.User, error) {
	return nil, b.err
}

func TestNewService_RequiresDependencies(t *testing.T) {
	f := newTestFixture(t, nil)
	hasher, err := users.NewPasswordHasher(0)
	require.NoError(t, err)

	_, err = auth.NewService(auth.Repos{Sessions: f.sessionRepo}, f.manager, hasher)
	require.Error(t, err)
	_, err = auth.NewService(auth.Repos{Users: f.userRepo}, f.manager, hasher)
	require.Error(t, err)
	_, err = auth.NewService(auth.Repos{Users: f.userRepo, Sessions: f.sessionRepo}, nil, hasher)
	require.Error(t, err)
	_, err = auth.NewService(auth.Repos{Users: f.userRepo, Sessions: f.sessionRepo}, f.manager, nil)
	require.Error(t, err)
}

func TestRegister_ThenReRegister(t *testing.T) {
	ctx := context.Background()
	f := newTestFixture(t, nil)

	user := f.registerJohn(t)
	require.NotEmpty(t, user.ID)
	require.Equal(t, testUserEmail, user.Email)
	require.Equal(t, "John", user.FirstName)
	require.Equal(t, "Doe", user.LastName)
	require.NotNil(t, user.PasswordHash)
	require.NotEqual(t, testUserPassword, *user.PasswordHash)

	again, fe, err := f.service.Register(ctx, auth.RegistrationInput{
		Email:     testUserEmail,
		Password:  testUserPassword,
		FirstName: "John",
		LastName:  "Doe",
	})
	require.NoError(t, err)
	require.Nil(t, again)
	require.Equal(t, 1, fe.Len())
	require.Equal(t, "Your e-mail belongs to another account. Please login instead.", fe.Get(auth.FieldEmail))
}

func TestRegister_NormalizesEmail(t *testing.T) {
	ctx := context.Background()
	f := newTestFixture(t, nil)

	user, fe, err := f.service.Register(ctx, auth.RegistrationInput{
		Email:     "  John@Example.COM ",
		Password:  testUserPassword,
		FirstName: "John",
		LastName:  "Doe",
	})
	require.NoError(t, err)
	require.True(t, fe.Empty())
	require.Equal(t, testUserEmail, user.Email)

	_, fe, err = f.service.Register(ctx, auth.RegistrationInput{
		Email:     "JOHN@example.com",
		Password:  testUserPassword,
		FirstName: "John",
		LastName:  "Doe",
	})
	require.NoError(t, err)
	require.True(t, fe.Has(auth.FieldEmail))
}

func TestRegister_LongMultibytePassword(t *testing.T) {
	ctx := context.Background()
	f := newTestFixture(t, nil)

	password := strings.Repeat("é", 64)
	user, fe, err := f.service.Register(ctx, auth.RegistrationInput{
		Email:     "jose@example.com",
		Password:  password,
		FirstName: "Jose",
		LastName:  "Doe",
	})
	require.NoError(t, err)
	require.True(t, fe.Empty())
	require.NotNil(t, user)

	session, fe, err := f.service.Login(ctx, auth.LoginInput{Email: "jose@example.com", Password: password})
	require.NoError(t, err)
	require.True(t, fe.Empty())
	require.Equal(t, user.ID, session.UserID)
}

func TestRegister_InvalidInputCreatesNothing(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	f := newTestFixture(t, repo)

	user, fe, err := f.service.Register(context.Background(), auth.RegistrationInput{Email: testUserEmail})
	require.NoError(t, err)
	require.Nil(t, user)
	require.False(t, fe.Has(auth.FieldEmail))
	require.True(t, fe.Has(auth.FieldPassword))
	require.True(t, fe.Has(auth.FieldFirstName))
	require.True(t, fe.Has(auth.FieldLastName))
	require.Zero(t, repo.Len())
}

func TestRegister_DuplicateRace(t *testing.T) {
	ctx := context.Background()
	repo := &racingUserRepo{FakeUserRepo: fakeuserrepo.NewFakeUserRepo()}
	require.NoError(t, repo.Insert(ctx, &users.User{Email: testUserEmail}))
	f := newTestFixture(t, repo)

	user, fe, err := f.service.Register(ctx, auth.RegistrationInput{
		Email:     testUserEmail,
		Password:  testUserPassword,
		FirstName: "John",
		LastName:  "Doe",
	})
	require.ErrorIs(t, err, apperrors.ErrDuplicateEmail)
	require.Nil(t, user)
	require.True(t, fe.Empty())
	require.Equal(t, 1, repo.Len())
}

func TestRegister_StoreFault(t *testing.T) {
	storeErr := errors.New("disk full")
	f := newTestFixture(t, brokenUserRepo{err: storeErr})

	_, fe, err := f.service.Register(context.Background(), auth.RegistrationInput{
		Email:     testUserEmail,
		Password:  testUserPassword,
		FirstName: "John",
		LastName:  "Doe",
	})
	require.ErrorIs(t, err, storeErr)
	require.True(t, fe.Empty())
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newTestFixture(t, nil)
	user := f.registerJohn(t)

	t.Run("wrong password", func(t *testing.T) {
		session, fe, err := f.service.Login(ctx, auth.LoginInput{Email: testUserEmail, Password: "wrongpass"})
		require.NoError(t, err)
		require.Nil(t, session)
		require.Equal(t, 1, fe.Len())
		require.Equal(t, "Your password is incorrect. Please try again or click \"forgot password\".", fe.Get(auth.FieldPassword))
	})

	t.Run("unknown account", func(t *testing.T) {
		session, fe, err := f.service.Login(ctx, auth.LoginInput{Email: "nobody@example.com", Password: testUserPassword})
		require.NoError(t, err)
		require.Nil(t, session)
		require.Equal(t, 1, fe.Len())
		require.Equal(t, "An account with that e-mail does not exist. Please check and try again", fe.Get(auth.FieldEmail))
	})

	t.Run("invalid input", func(t *testing.T) {
		session, fe, err := f.service.Login(ctx, auth.LoginInput{Email: "john", Password: ""})
		require.NoError(t, err)
		require.Nil(t, session)
		require.Equal(t, 2, fe.Len())
	})

	t.Run("success", func(t *testing.T) {
		session, fe, err := f.service.Login(ctx, auth.LoginInput{Email: "JOHN@example.com", Password: testUserPassword})
		require.NoError(t, err)
		require.True(t, fe.Empty())
		require.Equal(t, user.ID, session.UserID)
		require.Equal(t, f.now.Add(30*24*time.Hour), session.ExpiresAt)
		require.NotNil(t, session.User)
		require.Equal(t, user.ID, session.User.ID)

		stored, err := f.sessionRepo.Get(ctx, session.ID)
		require.NoError(t, err)
		require.Equal(t, user.ID, stored.UserID)
	})
}

func TestLogin_ExternalAccountHasNoPassword(t *testing.T) {
	ctx := context.Background()
	f := newTestFixture(t, nil)

	_, err := f.service.LoginOrCreateFromExternalIdentity(ctx, auth.ExternalIdentity{Email: "jane@example.com", FirstName: "Jane", LastName: "Doe"})
	require.NoError(t, err)

	session, fe, err := f.service.Login(ctx, auth.LoginInput{Email: "jane@example.com", Password: "anything"})
	require.NoError(t, err)
	require.Nil(t, session)
	require.True(t, fe.Has(auth.FieldPassword))
}

func TestLogin_CorruptHash(t *testing.T) {
	ctx := context.Background()
	repo := fakeuserrepo.NewFakeUserRepo()
	require.NoError(t, repo.Insert(ctx, &users.User{Email: testUserEmail, PasswordHash: utils.Ptr("not-a-bcrypt-hash")}))
	f := newTestFixture(t, repo)

	session, fe, err := f.service.Login(ctx, auth.LoginInput{Email: testUserEmail, Password: testUserPassword})
	require.ErrorIs(t, err, apperrors.ErrMalformedHash)
	require.Nil(t, session)
	require.True(t, fe.Empty())
	require.Zero(t, f.sessionRepo.Len())
}

func TestLogin_StoreFault(t *testing.T) {
	storeErr := errors.New("connection reset")
	f := newTestFixture(t, brokenUserRepo{err: storeErr})

	_, _, err := f.service.Login(context.Background(), auth.LoginInput{Email: testUserEmail, Password: testUserPassword})
	require.ErrorIs(t, err, storeErr)
}

func TestIssueAndResolveToken(t *testing.T) {
	ctx := context.Background()
	f := newTestFixture(t, nil)
	user := f.registerJohn(t)

	session, _, err := f.service.Login(ctx, auth.LoginInput{Email: testUserEmail, Password: testUserPassword})
	require.NoError(t, err)

	tok, err := f.service.IssueToken(session)
	require.NoError(t, err)

	resolved, err := f.service.ResolveToken(ctx, tok)
	require.NoError(t, err)
	require.Equal(t, session.ID, resolved.ID)
	require.Equal(t, user.Email, resolved.User.Email)

	f.sessionRepo.Delete(session.ID)
	_, err = f.service.ResolveToken(ctx, tok)
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)

	_, err = f.service.ResolveToken(ctx, tok+"x")
	require.ErrorIs(t, err, apperrors.ErrInvalidSignature)
}

func TestLoginOrCreateFromExternalIdentity_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := fakeuserrepo.NewFakeUserRepo()
	f := newTestFixture(t, repo)

	identity := auth.ExternalIdentity{Email: "jane@example.com", FirstName: "Jane", LastName: "Doe"}

	first, err := f.service.LoginOrCreateFromExternalIdentity(ctx, identity)
	require.NoError(t, err)
	require.Nil(t, first.PasswordHash)
	require.Equal(t, "Jane", first.FirstName)

	second, err := f.service.LoginOrCreateFromExternalIdentity(ctx, identity)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 1, repo.Len())
}

func TestLoginOrCreateFromExternalIdentity_KeepsExistingUser(t *testing.T) {
	ctx := context.Background()
	f := newTestFixture(t, nil)
	john := f.registerJohn(t)

	user, err := f.service.LoginOrCreateFromExternalIdentity(ctx, auth.ExternalIdentity{Email: "John@Example.com", FirstName: "Johnny", LastName: "D"})
	require.NoError(t, err)
	require.Equal(t, john.ID, user.ID)
	require.Equal(t, "John", user.FirstName)
	require.NotNil(t, user.PasswordHash)
}

func TestLoginOrCreateFromExternalIdentity_MatchesEmailCaseInsensitively(t *testing.T) {
	ctx := context.Background()
	repo := fakeuserrepo.NewFakeUserRepo()
	f := newTestFixture(t, repo)

	created, err := f.service.LoginOrCreateFromExternalIdentity(ctx, auth.ExternalIdentity{Email: " Jane@Example.COM ", FirstName: "Jane", LastName: "Doe"})
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", created.Email)

	again, err := f.service.LoginOrCreateFromExternalIdentity(ctx, auth.ExternalIdentity{Email: "JANE@example.com", FirstName: "Jane", LastName: "Doe"})
	require.NoError(t, err)
	require.Equal(t, created.ID, again.ID)
	require.Equal(t, 1, repo.Len())
}

func TestLoginOrCreateFromExternalIdentity_Race(t *testing.T) {
	ctx := context.Background()
	repo := &racingUserRepo{FakeUserRepo: fakeuserrepo.NewFakeUserRepo()}
	winner := &users.User{Email: "jane@example.com", FirstName: "Jane"}
	require.NoError(t, repo.Insert(ctx, winner))
	f := newTestFixture(t, repo)

	user, err := f.service.LoginOrCreateFromExternalIdentity(ctx, auth.ExternalIdentity{Email: "jane@example.com", FirstName: "Jane", LastName: "Doe"})
	require.NoError(t, err)
	require.Equal(t, winner.ID, user.ID)
	require.Equal(t, 1, repo.Len())
}

func TestLoginOrCreateFromExternalIdentity_RequiresEmail(t *testing.T) {
	f := newTestFixture(t, nil)

	_, err := f.service.LoginOrCreateFromExternalIdentity(context.Background(), auth.ExternalIdentity{FirstName: "Jane"})
	require.Error(t, err)
}

func TestStartExternalSession(t *testing.T) {
	ctx := context.Background()
	f := newTestFixture(t, nil)

	session, err := f.service.StartExternalSession(ctx, auth.ExternalIdentity{Email: "jane@example.com", FirstName: "Jane", LastName: "Doe"})
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", session.User.Email)

	list, err := f.service.ListSessions(ctx, session.UserID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, session.ID, list[0].ID)
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	f := newTestFixture(t, nil)
	f.registerJohn(t)

	_, err := f.service.LoginOrCreateFromExternalIdentity(ctx, auth.ExternalIdentity{Email: "jane@example.com", FirstName: "Jane", LastName: "Doe"})
	require.NoError(t, err)

	list, err := f.service.ListUsers(ctx, -5, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)

	list, err = f.service.ListUsers(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestService_RecordsMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	f := newTestFixture(t, nil, auth.WithMetrics(metrics.NewCollector(reg)))
	f.registerJohn(t)

	_, _, err := f.service.Login(ctx, auth.LoginInput{Email: testUserEmail, Password: testUserPassword})
	require.NoError(t, err)
	_, _, err = f.service.Login(ctx, auth.LoginInput{Email: testUserEmail, Password: "wrongpass"})
	require.NoError(t, err)
	_, err = f.service.ResolveToken(ctx, "garbage")
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range m.GetLabel() {
				key += "|" + lp.GetValue()
			}
			counts[key] = m.GetCounter().GetValue()
		}
	}
	require.Equal(t, float64(1), counts["sessionauth_registrations_total|success"])
	require.Equal(t, float64(1), counts["sessionauth_logins_total|success"])
	require.Equal(t, float64(1), counts["sessionauth_logins_total|invalid"])
	require.Equal(t, float64(1), counts["sessionauth_sessions_created_total|password"])
	require.Equal(t, float64(1), counts["sessionauth_token_resolves_total|invalid_signature"])
}
