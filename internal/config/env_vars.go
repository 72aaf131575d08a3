package config

import (
	"strings"
)

type EnvVars struct {
	s settings
}

var _ EnvConfig = EnvVars{}

// GetPort returns the listen address, e.g. ":8080".
func (e EnvVars) GetPort() string {
	port := e.s.Port
	if port == "" {
		port = "8080"
	}
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.s.AppName
}

func (e EnvVars) GetEnv() string {
	if e.s.Env == "" {
		return "DEV"
	}
	return strings.ToUpper(e.s.Env)
}

func (e EnvVars) GetLogLevel() string {
	return e.s.Log.Level
}

func (e EnvVars) GetFixturesEnabled() bool {
	return e.s.Fixtures.Enabled
}
