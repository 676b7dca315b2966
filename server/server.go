package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-lawfirm-console/guard"
	"github.com/jrsteele09/go-lawfirm-console/internal/config"
	"github.com/jrsteele09/go-lawfirm-console/metrics"
	"github.com/jrsteele09/go-lawfirm-console/session"
	"github.com/jrsteele09/go-lawfirm-console/tokens"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// Server is the dashboard shell: login and registration pages, guarded views
// and an authenticated proxy to the backend API.
type Server struct {
	env          string // Environment (e.g., "DEV", "PROD")
	appName      string
	mux          *http.ServeMux
	routes       []string
	config       config.Config
	session      *session.Controller
	guard        *guard.Guard
	store        tokens.Store
	loginLimiter *rate.Limiter
	crossOrigin  *http.CrossOriginProtection
	metrics      *metrics.Collector
	gatherer     prometheus.Gatherer
	apiProxy     http.Handler
}

type Option func(*Server)

// WithMetrics records request metrics on collector and serves gatherer on /metrics.
func WithMetrics(collector *metrics.Collector, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = collector
		s.gatherer = gatherer
	}
}

// WithBackendTransport replaces the round tripper the API proxy uses beneath
// the bearer token transport.
func WithBackendTransport(rt http.RoundTripper) Option {
	return func(s *Server) {
		s.apiProxy = s.newAPIProxy(rt)
	}
}

func New(cfg config.Config, controller *session.Controller, g *guard.Guard, store tokens.Store, opts ...Option) (*Server, error) {
	if cfg == nil || controller == nil || g == nil || store == nil {
		return nil, fmt.Errorf("[Server New] config, session, guard and token store are required")
	}

	s := &Server{
		env:          cfg.GetEnv(),
		appName:      cfg.GetAppName(),
		mux:          http.NewServeMux(),
		config:       cfg,
		session:      controller,
		guard:        g,
		store:        store,
		loginLimiter: rate.NewLimiter(cfg.GetLoginRateLimit(), cfg.GetLoginBurst()),
		crossOrigin:  http.NewCrossOriginProtection(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.apiProxy == nil {
		s.apiProxy = s.newAPIProxy(nil)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Routes returns the registered route patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		method, path := SplitPattern(route)
		logRoute(method, path)
	}
}

// SplitPattern separates a ServeMux pattern into its method and path.
func SplitPattern(pattern string) (method, path string) {
	parts := strings.SplitN(pattern, " ", 2)
	if len(parts) > 1 {
		return parts[0], parts[1]
	}
	return "", parts[0]
}
