package database

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	apperrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/users"
)

var _ users.Repo = (*UserRepo)(nil)

const userColumns = `id, email, password_hash, first_name, last_name, created_at, updated_at`

// UserRepo is a users.Repo backed by the users table.
type UserRepo struct {
	db      *DB
	nowFunc func() time.Time
}

func NewUserRepo(db *DB) (*UserRepo, error) {
	if db == nil {
		return nil, errors.New("[NewUserRepo] database is required")
	}
	return &UserRepo{db: db, nowFunc: time.Now}, nil
}

func (r *UserRepo) Insert(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := r.nowFunc().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	var hash sql.NullString
	if user.PasswordHash != nil {
		hash = sql.NullString{String: *user.PasswordHash, Valid: true}
	}

	query := r.db.rebind(`INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, hash, user.FirstName, user.LastName, user.CreatedAt.UTC(), user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(apperrors.ErrDuplicateEmail, "[UserRepo Insert] %s", user.Email)
		}
		return errors.Wrap(err, "[UserRepo Insert]")
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`), email)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[UserRepo GetByEmail]")
	}
	return user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[UserRepo GetByID]")
	}
	return user, nil
}

// List pages through users by creation time. A non-positive limit returns everything after offset.
func (r *UserRepo) List(ctx context.Context, offset, limit int) ([]*users.User, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = math.MaxInt32
	}

	query := r.db.rebind(`SELECT ` + userColumns + ` FROM users ORDER BY created_at, id LIMIT ? OFFSET ?`)
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "[UserRepo List]")
	}
	defer rows.Close()

	list := []*users.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "[UserRepo List]")
		}
		list = append(list, user)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "[UserRepo List]")
	}
	return list, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*users.User, error) {
	var (
		user users.User
		hash sql.NullString
	)
	if err := s.Scan(&user.ID, &user.Email, &hash, &user.FirstName, &user.LastName, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	if hash.Valid {
		user.PasswordHash = &hash.String
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return &user, nil
}
