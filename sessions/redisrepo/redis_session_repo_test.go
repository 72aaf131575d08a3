package redisrepo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/jrsteele09/go-session-auth/sessions/redisrepo"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *redisrepo.RedisSessionRepo {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	client, err := redisrepo.Connect(context.Background(), redisrepo.Config{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	repo, err := redisrepo.NewRedisSessionRepo(client)
	require.NoError(t, err)
	return repo
}

func TestNewRedisSessionRepo_RequiresClient(t *testing.T) {
	_, err := redisrepo.NewRedisSessionRepo(nil)
	require.Error(t, err)
}

func TestRedisSessionRepo_InsertGetList(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	userID := uuid.New().String()
	now := time.Now().UTC().Truncate(time.Millisecond)

	first := &sessions.Session{ID: uuid.New().String(), UserID: userID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	second := &sessions.Session{ID: uuid.New().String(), UserID: userID, CreatedAt: now.Add(time.Second), ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Insert(ctx, second))
	require.NoError(t, repo.Insert(ctx, first))
	require.Error(t, repo.Insert(ctx, first))

	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, userID, got.UserID)
	require.True(t, first.ExpiresAt.Equal(got.ExpiresAt))

	list, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, first.ID, list[0].ID)
	require.Equal(t, second.ID, list[1].ID)
}

func TestRedisSessionRepo_NotFound(t *testing.T) {
	repo := newRepo(t)

	_, err := repo.Get(context.Background(), uuid.New().String())
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)

	list, err := repo.ListByUser(context.Background(), uuid.New().String())
	require.NoError(t, err)
	require.Empty(t, list)
}
