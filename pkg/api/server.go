package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/snooze/pkg/auth"
	"github.com/platinummonkey/snooze/pkg/httputil"
	"github.com/platinummonkey/snooze/pkg/middleware"
	"github.com/platinummonkey/snooze/pkg/observability"
	"github.com/platinummonkey/snooze/pkg/storage"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured
const DefaultMaxBodyBytes = 1 << 20

// Server represents our API server
type Server struct {
	store   storage.Store
	codec   *auth.TokenCodec
	hasher  *auth.PasswordHasher
	authn   *middleware.AuthMiddleware
	limiter middleware.Limiter
	metrics *observability.Metrics
	audit   *auth.AuditLogger
	proxies *auth.ProxyTrust
	logger  *logrus.Logger
	router  *mux.Router

	corsOrigins  []string
	maxBodyBytes int64
}

// Option configures a Server
type Option func(*Server)

// WithMetrics enables Prometheus instrumentation of routes, auth and logins
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the logger for request logs, audit events and failures
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithRateLimiter limits signup and login per client address
func WithRateLimiter(limiter middleware.Limiter) Option {
	return func(s *Server) { s.limiter = limiter }
}

// WithTrustedProxies honours forwarding headers from the given proxies when
// keying rate limits and recording caller addresses
func WithTrustedProxies(proxies *auth.ProxyTrust) Option {
	return func(s *Server) { s.proxies = proxies }
}

// WithCORSOrigins allows cross-origin requests from the given origins
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithMaxBodyBytes bounds request bodies
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// NewServer creates a new API server
func NewServer(store storage.Store, codec *auth.TokenCodec, hasher *auth.PasswordHasher, opts ...Option) *Server {
	s := &Server{
		store:        store,
		codec:        codec,
		hasher:       hasher,
		logger:       logrus.StandardLogger(),
		router:       mux.NewRouter(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.audit = auth.NewAuditLogger(s.logger, s.proxies)
	s.authn = middleware.NewAuthMiddleware(codec, store,
		middleware.WithAuthMetrics(s.metrics),
		middleware.WithAuditLogger(s.audit),
	)

	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFound(w)
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteMethodNotAllowed(w)
	})

	s.router.Use(observability.SpanRouteMiddleware)
	if s.metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.metrics))
	}

	// User routes
	s.router.Handle("/api/users/signup", s.rateLimited("signup", s.signup)).Methods("POST")
	s.router.Handle("/api/users/login", s.rateLimited("login", s.login)).Methods("POST")
	s.router.Handle("/api/users/{username}", s.authenticated(s.getUser)).Methods("GET")
	s.router.Handle("/api/users/{username}", s.authenticated(s.patchUser)).Methods("PATCH")

	// Favorite routes
	s.router.Handle("/api/users/{username}/favorites/{story_id}", s.authenticated(s.addFavorite)).Methods("POST")
	s.router.Handle("/api/users/{username}/favorites/{story_id}", s.authenticated(s.removeFavorite)).Methods("DELETE")

	// Story routes
	for _, path := range []string{"/api/stories/", "/api/stories"} {
		s.router.Handle(path, s.authenticated(s.createStory)).Methods("POST")
		s.router.HandleFunc(path, s.listStories).Methods("GET")
	}
	s.router.HandleFunc("/api/stories/{id}", s.getStory).Methods("GET")
	s.router.Handle("/api/stories/{id}", s.authenticated(s.deleteStory)).Methods("DELETE")
}

func (s *Server) authenticated(h http.HandlerFunc) http.Handler {
	return s.authn.Handler(h)
}

func (s *Server) rateLimited(route string, h http.HandlerFunc) http.Handler {
	if s.limiter == nil {
		return h
	}
	return middleware.NewRateLimitMiddleware(s.limiter, route,
		middleware.WithRateLimitMetrics(s.metrics),
		middleware.WithRateLimitAudit(s.audit),
		middleware.WithRateLimitLogger(s.logger),
		middleware.WithTrustedProxies(s.proxies),
	).Handler(h)
}

// ServeHTTP implements http.Handler on the bare router
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the router so callers can mount extra routes
func (s *Server) Router() *mux.Router {
	return s.router
}

// Handler returns the router wrapped in the request ID, logging, recovery,
// CORS and body size middleware
func (s *Server) Handler() http.Handler {
	headers := []string{s.codec.Header()}
	return httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.logger),
		httputil.RecoveryMiddleware(s.logger),
		httputil.CORSMiddleware(s.corsOrigins, headers...),
		httputil.MaxBytesMiddleware(s.maxBodyBytes),
	)(s.router)
}
