package config

import "time"

type SecurityConfig interface {
	GetSessionSecret() string
	GetSessionTTL() time.Duration
	GetEnforceSessionExpiry() bool
	GetPasswordCost() int
}

type Security struct {
	s settings
}

var _ SecurityConfig = Security{}

func (sc Security) GetSessionSecret() string {
	return sc.s.Session.Secret
}

func (sc Security) GetSessionTTL() time.Duration {
	return sc.s.Session.TTL
}

// GetEnforceSessionExpiry reports whether expired sessions stop resolving.
func (sc Security) GetEnforceSessionExpiry() bool {
	return sc.s.Session.EnforceExpiry
}

func (sc Security) GetPasswordCost() int {
	return sc.s.Password.Cost
}
