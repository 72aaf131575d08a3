package redisrepo

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/sessions"
)

var _ sessions.Repo = (*RedisSessionRepo)(nil)

const (
	sessionKeyPrefix     = "session:"
	userSessionKeyPrefix = "user_sessions:"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// RedisSessionRepo stores sessions as JSON documents. Keys carry no TTL.
type RedisSessionRepo struct {
	client *redis.Client
}

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "[redisrepo Connect] failed to connect to Redis")
	}
	return rdb, nil
}

func NewRedisSessionRepo(client *redis.Client) (*RedisSessionRepo, error) {
	if client == nil {
		return nil, errors.New("[NewRedisSessionRepo] redis client is required")
	}
	return &RedisSessionRepo{client: client}, nil
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func userSessionsKey(userID string) string { return userSessionKeyPrefix + userID }

func (r *RedisSessionRepo) Insert(ctx context.Context, session *sessions.Session) error {
	if session.ID == "" {
		return errors.New("[RedisSessionRepo Insert] session id is required")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "[RedisSessionRepo Insert] failed to encode session")
	}

	created, err := r.client.SetNX(ctx, sessionKey(session.ID), data, 0).Result()
	if err != nil {
		return errors.Wrap(err, "[RedisSessionRepo Insert]")
	}
	if !created {
		return errors.Errorf("[RedisSessionRepo Insert] session %s already exists", session.ID)
	}

	if err := r.client.SAdd(ctx, userSessionsKey(session.UserID), session.ID).Err(); err != nil {
		return errors.Wrap(err, "[RedisSessionRepo Insert] failed to index session")
	}
	return nil
}

func (r *RedisSessionRepo) Get(ctx context.Context, sessionID string) (*sessions.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[RedisSessionRepo Get]")
	}

	var session sessions.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, errors.Wrapf(err, "[RedisSessionRepo Get] corrupt session %s", sessionID)
	}
	return &session, nil
}

func (r *RedisSessionRepo) ListByUser(ctx context.Context, userID string) ([]*sessions.Session, error) {
	ids, err := r.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "[RedisSessionRepo ListByUser]")
	}
	if len(ids) == 0 {
		return []*sessions.Session{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "[RedisSessionRepo ListByUser]")
	}

	list := make([]*sessions.Session, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // indexed id without a document
		}
		var session sessions.Session
		if err := json.Unmarshal([]byte(raw), &session); err != nil {
			return nil, errors.Wrapf(err, "[RedisSessionRepo ListByUser] corrupt session %s", ids[i])
		}
		list = append(list, &session)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}
