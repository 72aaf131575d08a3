package fakesessionrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	apperrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

type FakeSessionRepo struct {
	sessions map[string]*sessions.Session
	byUser   map[string][]string // user id to session ids, insertion order
	lock     sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		sessions: make(map[string]*sessions.Session),
		byUser:   make(map[string][]string),
	}
}

func (sr *FakeSessionRepo) Insert(_ context.Context, session *sessions.Session) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if session.ID == "" {
		return errors.New("[FakeSessionRepo Insert] session id is required")
	}
	if _, exists := sr.sessions[session.ID]; exists {
		return errors.Errorf("[FakeSessionRepo Insert] session %s already exists", session.ID)
	}

	sr.sessions[session.ID] = session.Clone()
	sr.byUser[session.UserID] = append(sr.byUser[session.UserID], session.ID)
	return nil
}

func (sr *FakeSessionRepo) Get(_ context.Context, sessionID string) (*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	session, ok := sr.sessions[sessionID]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (sr *FakeSessionRepo) ListByUser(_ context.Context, userID string) ([]*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	ids := sr.byUser[userID]
	list := make([]*sessions.Session, 0, len(ids))
	for _, id := range ids {
		list = append(list, sr.sessions[id].Clone())
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

// Delete removes a session. Only tests use it, to simulate a session that no longer exists.
func (sr *FakeSessionRepo) Delete(sessionID string) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	session, ok := sr.sessions[sessionID]
	if !ok {
		return
	}
	ids := sr.byUser[session.UserID]
	for i, id := range ids {
		if id == sessionID {
			sr.byUser[session.UserID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	delete(sr.sessions, sessionID)
}

// Len returns the number of stored sessions.
func (sr *FakeSessionRepo) Len() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return len(sr.sessions)
}
