// Package social resolves users through third-party identity providers.
package social

import (
	"context"
	"errors"
	"sort"
)

// ErrProfileIncomplete is returned when a provider profile lacks an email address.
var ErrProfileIncomplete = errors.New("provider profile has no email")

// ErrEmailUnverified is returned when the issuer has not verified the profile's email address.
var ErrEmailUnverified = errors.New("provider email is not verified")

// Profile is the identity a provider vouches for.
type Profile struct {
	Subject   string
	Email     string
	FirstName string
	LastName  string
}

// Provider drives one authorization-code login flow.
type Provider interface {
	// Name is the path segment the provider is mounted under, e.g. "facebook"
	Name() string

	// AuthCodeURL returns the consent page URL carrying state
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for the user's profile
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// Registry holds the configured providers by name.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
