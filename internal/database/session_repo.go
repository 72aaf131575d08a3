package database

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	apperrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/sessions"
)

var _ sessions.Repo = (*SessionRepo)(nil)

// SessionRepo is a sessions.Repo backed by the sessions table.
type SessionRepo struct {
	db *DB
}

func NewSessionRepo(db *DB) (*SessionRepo, error) {
	if db == nil {
		return nil, errors.New("[NewSessionRepo] database is required")
	}
	return &SessionRepo{db: db}, nil
}

func (r *SessionRepo) Insert(ctx context.Context, session *sessions.Session) error {
	if session.ID == "" {
		return errors.New("[SessionRepo Insert] session id is required")
	}

	query := r.db.rebind(`INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query, session.ID, session.UserID, session.ExpiresAt.UTC(), session.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Errorf("[SessionRepo Insert] session %s already exists", session.ID)
		}
		return errors.Wrap(err, "[SessionRepo Insert]")
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*sessions.Session, error) {
	query := r.db.rebind(`SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = ?`)
	session, err := scanSession(r.db.QueryRowContext(ctx, query, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[SessionRepo Get]")
	}
	return session, nil
}

func (r *SessionRepo) ListByUser(ctx context.Context, userID string) ([]*sessions.Session, error) {
	query := r.db.rebind(`SELECT id, user_id, expires_at, created_at FROM sessions WHERE user_id = ? ORDER BY created_at, id`)
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.Wrap(err, "[SessionRepo ListByUser]")
	}
	defer rows.Close()

	list := []*sessions.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, errors.Wrap(err, "[SessionRepo ListByUser]")
		}
		list = append(list, session)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "[SessionRepo ListByUser]")
	}
	return list, nil
}

func scanSession(s scanner) (*sessions.Session, error) {
	var session sessions.Session
	if err := s.Scan(&session.ID, &session.UserID, &session.ExpiresAt, &session.CreatedAt); err != nil {
		return nil, err
	}
	session.ExpiresAt = session.ExpiresAt.UTC()
	session.CreatedAt = session.CreatedAt.UTC()
	return &session, nil
}
