// Package authflowrepo keeps the short-lived state of in-progress social logins,
// keyed by the OAuth2 state parameter.
package authflowrepo

import (
	"errors"
	"time"
)

// ErrStateNotFound is returned for an unknown or expired state.
var ErrStateNotFound = errors.New("auth flow state not found")

type AuthFlowState struct {
	Provider  string
	ReturnURL string
	CreatedAt time.Time
}

type Repo interface {
	Upsert(state string, authState *AuthFlowState) error
	// Take returns the state and removes it, so each state can be redeemed once.
	Take(state string) (*AuthFlowState, error)
}
