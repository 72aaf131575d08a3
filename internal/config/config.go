package config

import (
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/jrsteele09/go-session-auth/internal/errors"
)

// EnvPrefix is the prefix of environment variables that override configuration keys.
// AUTH_SESSION_TTL sets session.ttl.
const EnvPrefix = "AUTH_"

type Config interface {
	EnvConfig
	CorsConfig
	SecurityConfig
	StoreConfig
	SocialConfig
	Validate() error
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetFixturesEnabled() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type settings struct {
	Env     string `koanf:"env"`
	Port    string `koanf:"port"`
	AppName string `koanf:"appName"`
	Log     struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
	Store struct {
		Driver string `koanf:"driver"`
		DSN    string `koanf:"dsn"`
	} `koanf:"store"`
	Session struct {
		Secret        string        `koanf:"secret"`
		TTL           time.Duration `koanf:"ttl"`
		EnforceExpiry bool          `koanf:"enforceExpiry"`
		Store         string        `koanf:"store"`
	} `koanf:"session"`
	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`
	Password struct {
		Cost int `koanf:"cost"`
	} `koanf:"password"`
	Cors struct {
		AllowedOrigins []string `koanf:"allowedOrigins"`
	} `koanf:"cors"`
	Social struct {
		Facebook struct {
			ClientID     string `koanf:"clientId"`
			ClientSecret string `koanf:"clientSecret"`
			RedirectURL  string `koanf:"redirectUrl"`
		} `koanf:"facebook"`
		OIDC struct {
			Issuer       string `koanf:"issuer"`
			ClientID     string `koanf:"clientId"`
			ClientSecret string `koanf:"clientSecret"`
			RedirectURL  string `koanf:"redirectUrl"`
		} `koanf:"oidc"`
	} `koanf:"social"`
	Fixtures struct {
		Enabled bool `koanf:"enabled"`
	} `koanf:"fixtures"`
}

var defaults = map[string]any{
	"env":                          "DEV",
	"port":                         "8080",
	"appName":                      "Session Auth",
	"log.level":                    "info",
	"store.driver":                 StoreDriverSQLite,
	"store.dsn":                    "file:session-auth.db",
	"session.secret":               "",
	"session.ttl":                  "720h",
	"session.enforceExpiry":        false,
	"session.store":                SessionStoreDefault,
	"redis.addr":                   "localhost:6379",
	"redis.password":               "",
	"redis.db":                     0,
	"password.cost":                bcrypt.DefaultCost,
	"cors.allowedOrigins":          []string{"http://localhost:3000"},
	"social.facebook.clientId":     "",
	"social.facebook.clientSecret": "",
	"social.facebook.redirectUrl":  "",
	"social.oidc.issuer":           "",
	"social.oidc.clientId":         "",
	"social.oidc.clientSecret":     "",
	"social.oidc.redirectUrl":      "",
	"fixtures.enabled":             false,
}

type mainConfig struct {
	EnvVars
	Cors
	Security
	Store
	Social
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigFile is an optional YAML file. A missing file is not an error.
	ConfigFile string
	// DotEnvFiles are loaded into the process environment first. Missing files are ignored.
	DotEnvFiles []string
}

// Load layers defaults, the optional YAML file and AUTH_ environment variables.
func Load(opts LoadOptions) (Config, error) {
	for _, f := range opts.DotEnvFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, errors.Wrapf(err, "[config Load] failed to load %s", f)
		}
	}

	k := koanf.New(".")
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, errors.Wrapf(err, "[config Load] default %s", key)
		}
	}

	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err == nil {
			if err := k.Load(file.Provider(opts.ConfigFile), yaml.Parser()); err != nil {
				return nil, errors.Wrapf(err, "[config Load] read %s failed", opts.ConfigFile)
			}
		}
	}

	existing := k.Raw()
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			path := canonicalizeEnvKey(strings.TrimPrefix(key, EnvPrefix), existing)
			if path == "cors.allowedOrigins" {
				return path, splitList(value)
			}
			return path, value
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "[config Load] load env variables failed")
	}

	var s settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, errors.Wrap(err, "[config Load] unmarshal config failed")
	}

	return newMainConfig(s), nil
}

func newMainConfig(s settings) mainConfig {
	return mainConfig{
		EnvVars:  EnvVars{s: s},
		Cors:     Cors{origins: NewAllowedOrigins(s.Cors.AllowedOrigins...)},
		Security: Security{s: s},
		Store:    Store{s: s},
		Social:   Social{s: s},
	}
}

// Validate rejects settings the service cannot start with.
func (c mainConfig) Validate() error {
	if strings.TrimSpace(c.GetSessionSecret()) == "" {
		return errors.Wrap(apperrors.ErrInvalidConfig, "session.secret is required")
	}
	if cost := c.GetPasswordCost(); cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return errors.Wrapf(apperrors.ErrInvalidConfig, "password.cost %d outside [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.GetSessionTTL() <= 0 {
		return errors.Wrap(apperrors.ErrInvalidConfig, "session.ttl must be positive")
	}
	switch c.GetStoreDriver() {
	case StoreDriverMemory, StoreDriverSQLite, StoreDriverPostgres:
	default:
		return errors.Wrapf(apperrors.ErrInvalidConfig, "unknown store.driver %q", c.GetStoreDriver())
	}
	switch c.GetSessionStore() {
	case SessionStoreDefault, SessionStoreRedis:
	default:
		return errors.Wrapf(apperrors.ErrInvalidConfig, "unknown session.store %q", c.GetSessionStore())
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// canonicalizeEnvKey maps SESSION_ENFORCEEXPIRY onto the existing key session.enforceExpiry.
func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}
		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (string, map[string]any, bool) {
	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}
		child, _ := value.(map[string]any)
		return key, child, true
	}
	return "", nil, false
}

func normalizeToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
