package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/jrsteele09/go-session-auth/internal/database"
	"github.com/jrsteele09/go-session-auth/internal/metrics"
	"github.com/jrsteele09/go-session-auth/server"
	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/jrsteele09/go-session-auth/sessions/redisrepo"
	fakesessionrepo "github.com/jrsteele09/go-session-auth/sessions/repofake"
	"github.com/jrsteele09/go-session-auth/social"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/jrsteele09/go-session-auth/users"
	fakeuserrepo "github.com/jrsteele09/go-session-auth/users/repofake"
)

func main() {
	configFile := flag.String("config", "config.yaml", "optional YAML configuration file")
	flag.Parse()

	if err := run(*configFile); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run(configFile string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load(config.LoadOptions{ConfigFile: configFile, DotEnvFiles: []string{".env"}})
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	setupLogging(c, os.Stdout)
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeStores, err := openStores(ctx, c)
	if err != nil {
		return err
	}
	defer closeStores()

	codec, err := token.NewHMACCodec(c.GetSessionSecret())
	if err != nil {
		return err
	}
	manager, err := sessions.NewManager(repos.Sessions, repos.Users, codec,
		sessions.WithTTL(c.GetSessionTTL()),
		sessions.WithExpiryEnforcement(c.GetEnforceSessionExpiry()),
	)
	if err != nil {
		return err
	}
	hasher, err := users.NewPasswordHasher(c.GetPasswordCost())
	if err != nil {
		return err
	}

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)
	authService, err := auth.NewService(repos, manager, hasher, auth.WithMetrics(collector))
	if err != nil {
		return err
	}

	providers, err := socialProviders(ctx, c)
	if err != nil {
		return err
	}

	handler, err := server.New(c, authService,
		server.WithProviders(providers),
		server.WithMetrics(collector, metrics.Handler(prometheus.DefaultGatherer)),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(srv) }()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	return shutdown(srv)
}

func setupLogging(c config.Config, out io.Writer) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.GetLogLevel()))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if c.GetEnv() == "DEV" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(out).With().Timestamp().Str("app", c.GetAppName()).Logger()
}

// openStores builds the user and session stores selected by configuration.
func openStores(ctx context.Context, c config.Config) (auth.Repos, func(), error) {
	var (
		repos   auth.Repos
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch c.GetStoreDriver() {
	case config.StoreDriverMemory:
		repos.Users = fakeuserrepo.NewFakeUserRepo()
		repos.Sessions = fakesessionrepo.NewFakeSessionRepo()
		log.Warn().Msg("Using the in-memory store, data is lost on restart")
	default:
		db, err := database.Open(ctx, database.Config{Driver: c.GetStoreDriver(), DSN: c.GetStoreDSN()})
		if err != nil {
			return auth.Repos{}, nil, err
		}
		closers = append(closers, func() { _ = db.Close() })

		userRepo, err := database.NewUserRepo(db)
		if err != nil {
			closeAll()
			return auth.Repos{}, nil, err
		}
		sessionRepo, err := database.NewSessionRepo(db)
		if err != nil {
			closeAll()
			return auth.Repos{}, nil, err
		}
		repos.Users, repos.Sessions = userRepo, sessionRepo
		log.Info().Str("driver", db.Driver()).Msg("Database ready")
	}

	if c.GetSessionStore() == config.SessionStoreRedis {
		client, err := redisrepo.Connect(ctx, redisrepo.Config{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
		})
		if err != nil {
			closeAll()
			return auth.Repos{}, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })

		sessionRepo, err := redisrepo.NewRedisSessionRepo(client)
		if err != nil {
			closeAll()
			return auth.Repos{}, nil, err
		}
		repos.Sessions = sessionRepo
		log.Info().Str("addr", c.GetRedisAddr()).Msg("Sessions stored in Redis")
	}

	return repos, closeAll, nil
}

// socialProviders registers every provider that has a client ID configured.
func socialProviders(ctx context.Context, c config.Config) (*social.Registry, error) {
	var providers []social.Provider

	if c.GetFacebookClientID() != "" {
		fb, err := social.NewFacebook(social.FacebookConfig{
			ClientID:     c.GetFacebookClientID(),
			ClientSecret: c.GetFacebookClientSecret(),
			RedirectURL:  c.GetFacebookRedirectURL(),
		})
		if err != nil {
			return nil, err
		}
		providers = append(providers, fb)
	}

	if c.GetOIDCIssuer() != "" {
		provider, err := social.NewOIDC(ctx, social.OIDCConfig{
			IssuerURL:    c.GetOIDCIssuer(),
			ClientID:     c.GetOIDCClientID(),
			ClientSecret: c.GetOIDCClientSecret(),
			RedirectURL:  c.GetOIDCRedirectURL(),
		})
		if err != nil {
			return nil, err
		}
		providers = append(providers, provider)
	}

	registry := social.NewRegistry(providers...)
	if names := registry.Names(); len(names) > 0 {
		log.Info().Strs("providers", names).Msg("Social login enabled")
	}
	return registry, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server.ListenAndServe")
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
