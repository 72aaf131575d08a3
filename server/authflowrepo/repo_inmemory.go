package authflowrepo

import (
	"errors"
	"sync"
	"time"
)

// DefaultMaxAge is how long a user has to come back from the provider.
const DefaultMaxAge = 10 * time.Minute

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface.
// Expired states are pruned on write.
type InMemoryRepo struct {
	mu      sync.Mutex
	states  map[string]AuthFlowState
	maxAge  time.Duration
	nowFunc func() time.Time
}

// NewInMemoryRepo creates a new in-memory auth flow state repository.
// A non-positive maxAge uses DefaultMaxAge.
func NewInMemoryRepo(maxAge time.Duration) *InMemoryRepo {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &InMemoryRepo{
		states:  make(map[string]AuthFlowState),
		maxAge:  maxAge,
		nowFunc: time.Now,
	}
}

// SetNowFunc replaces the clock. Tests only.
func (r *InMemoryRepo) SetNowFunc(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nowFunc = now
}

func (r *InMemoryRepo) Upsert(state string, authState *AuthFlowState) error {
	if state == "" {
		return errors.New("[InMemoryRepo Upsert] state cannot be empty")
	}
	if authState == nil {
		return errors.New("[InMemoryRepo Upsert] authState cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowFunc()
	for key, s := range r.states {
		if r.expired(s, now) {
			delete(r.states, key)
		}
	}

	stored := *authState
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	r.states[state] = stored
	return nil
}

func (r *InMemoryRepo) Take(state string) (*AuthFlowState, error) {
	if state == "" {
		return nil, ErrStateNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.states[state]
	if !exists {
		return nil, ErrStateNotFound
	}
	delete(r.states, state)

	if r.expired(stored, r.nowFunc()) {
		return nil, ErrStateNotFound
	}
	return &stored, nil
}

// Len returns the number of pending states.
func (r *InMemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

func (r *InMemoryRepo) expired(s AuthFlowState, now time.Time) bool {
	return now.Sub(s.CreatedAt) > r.maxAge
}
