package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/jrsteele09/go-session-auth/internal/metrics"
	"github.com/jrsteele09/go-session-auth/server/authflowrepo"
	"github.com/jrsteele09/go-session-auth/social"
)

type Server struct {
	env            string // Environment (e.g., "DEV", "PROD")
	mux            *http.ServeMux
	routes         []string
	config         config.Config
	auth           *auth.Service
	providers      *social.Registry
	authState      authflowrepo.Repo
	metrics        metrics.MetricsCollector
	metricsHandler http.Handler
}

type Option func(*Server)

// WithProviders mounts the social login routes for each provider in the registry.
func WithProviders(providers *social.Registry) Option {
	return func(s *Server) {
		if providers != nil {
			s.providers = providers
		}
	}
}

// WithAuthStateRepo replaces the in-memory social login state store.
func WithAuthStateRepo(repo authflowrepo.Repo) Option {
	return func(s *Server) {
		if repo != nil {
			s.authState = repo
		}
	}
}

// WithMetrics records request metrics on collector and serves handler on /metrics.
func WithMetrics(collector metrics.MetricsCollector, handler http.Handler) Option {
	return func(s *Server) {
		if collector != nil {
			s.metrics = collector
		}
		s.metricsHandler = handler
	}
}

func New(cfg config.Config, authService *auth.Service, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[Server New] config is required")
	}
	if authService == nil {
		return nil, errors.New("[Server New] auth service is required")
	}

	s := &Server{
		env:       cfg.GetEnv(),
		mux:       http.NewServeMux(),
		config:    cfg,
		auth:      authService,
		providers: social.NewRegistry(),
		authState: authflowrepo.NewInMemoryRepo(authflowrepo.DefaultMaxAge),
		metrics:   metrics.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.GetFixturesEnabled() {
		if err := s.InitialiseSystem(context.Background()); err != nil {
			return nil, errors.Wrap(err, "[Server New] failed to initialise the system")
		}
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%s] %s", colourMethod(method), path)
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
