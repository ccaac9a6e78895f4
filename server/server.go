package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-oauth-quickstart/internal/config"
	apperrors "github.com/jrsteele09/go-oauth-quickstart/internal/errors"
	"github.com/jrsteele09/go-oauth-quickstart/provider"
	"github.com/jrsteele09/go-oauth-quickstart/session"
	"github.com/jrsteele09/go-oauth-quickstart/token"
	"github.com/rs/zerolog/log"
)

// Clients are the provider clients a flow needs. Only those of the server's flow are used.
type Clients struct {
	Web      provider.WebClient
	Device   provider.DeviceClient
	JWT      provider.JWTClient
	UserInfo provider.UserInfoClient
}

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	flow    config.Flow
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	app     *config.OAuthApp
	clients Clients

	cache    *token.Cache
	sessions session.Store
	binder   *session.Binder
	metrics  *Metrics
	pages    pages
}

type Option func(*Server)

// WithTokenCache shares a cache with the caller, e.g. the device authorizer
func WithTokenCache(cache *token.Cache) Option {
	return func(s *Server) { s.cache = cache }
}

func WithSessionStore(store session.Store) Option {
	return func(s *Server) { s.sessions = store }
}

func WithBinder(binder *session.Binder) Option {
	return func(s *Server) { s.binder = binder }
}

func WithMetrics(metrics *Metrics) Option {
	return func(s *Server) { s.metrics = metrics }
}

func New(cfg config.Config, flow config.Flow, clients Clients, opts ...Option) (*Server, error) {
	app := cfg.GetOAuthApp()
	if app == nil {
		return nil, fmt.Errorf("[Server New] %w: no OAuth app configured", apperrors.ErrConfig)
	}

	s := &Server{
		env:     cfg.GetEnv(),
		flow:    flow,
		mux:     http.NewServeMux(),
		config:  cfg,
		app:     app,
		clients: clients,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.checkClients(); err != nil {
		return nil, fmt.Errorf("[Server New] %w", err)
	}
	if s.cache == nil {
		s.cache = token.NewCache()
	}
	if s.sessions == nil {
		// Tokens cached for a browser go when its session does
		s.sessions = session.NewMemoryStore(session.DefaultMaxSessions, cfg.GetSessionTTL(), func(id string) {
			s.cache.Delete(s.sessionCacheKey(id))
		})
	}
	if s.binder == nil {
		binder, err := session.NewBinder(cfg.GetSessionSecret(), cfg.GetSessionTTL(), false)
		if err != nil {
			return nil, fmt.Errorf("[Server New] failed to create session binder: %w", err)
		}
		s.binder = binder
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}

	pages, err := loadPages()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to load pages: %w", err)
	}
	s.pages = pages

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) checkClients() error {
	switch s.flow {
	case config.FlowWeb, config.FlowPKCE:
		if s.clients.Web == nil {
			return fmt.Errorf("%w: the %s flow needs a web client", apperrors.ErrConfig, s.flow)
		}
	case config.FlowDevice:
		if s.clients.Device == nil {
			return fmt.Errorf("%w: the device flow needs a device client", apperrors.ErrConfig)
		}
	case config.FlowJWT:
		if s.clients.JWT == nil {
			return fmt.Errorf("%w: the jwt flow needs a jwt client", apperrors.ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown flow %q", apperrors.ErrConfig, s.flow)
	}
	return nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Cache returns the token cache the server reads and writes
func (s *Server) Cache() *token.Cache {
	return s.cache
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists the registered route patterns in registration order
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
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
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func logError(method, path, error string) {
	log.Error().Msgf("[%-19s] %s %s", colourMethod(method), path, Red+error+ResetColor)
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

// cacheKey is the token cache key for a request. Browser flows cache per session;
// the device flow has a single token per client.
func (s *Server) cacheKey(r *http.Request) string {
	if s.flow == config.FlowWeb || s.flow == config.FlowPKCE {
		if sid, ok := s.binder.Lookup(r); ok {
			return s.sessionCacheKey(sid)
		}
	}
	return s.app.ClientID
}

func (s *Server) sessionCacheKey(sessionID string) string {
	return s.app.ClientID + "/" + sessionID
}

func (s *Server) refresher() provider.Refresher {
	if s.flow == config.FlowDevice {
		return s.clients.Device
	}
	return s.clients.Web
}
