package server

import (
	"net/http"
	"strings"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET /{$}", s.IndexHandler())

	// LOGIN
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageUIHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare(s.SameOriginMiddleware, s.LoginRateLimitMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare(s.SameOriginMiddleware)...))

	// REGISTRATION
	s.RegisterRouteHandler("GET "+RouteRegister, ChainMiddleware(s.RegisterGetHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthRegister, ChainMiddleware(s.RegisterPostHandler(), s.HTMLMiddleWare(s.SameOriginMiddleware, s.LoginRateLimitMiddleware)...))

	// Guarded views
	s.RegisterRouteHandler("GET "+RouteUnauthorized, ChainMiddleware(s.UnauthorizedHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteAppView, ChainMiddleware(s.ViewHandler(), s.HTMLMiddleWare(s.GuardMiddleware)...))

	// API routes
	s.RegisterRouteHandler(RouteAPIProxy, ChainMiddleware(s.APIProxyHandler(), s.APIMiddleware(s.SameOriginMiddleware, s.RequireSessionMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteSession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	if s.gatherer != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, metricsHandler(s.gatherer))
	}

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.HTMLMiddleWare(s.CacheMiddleware)...))
}

// IndexHandler sends visitors to the dashboard; the guard takes it from there.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, RouteDashboard, http.StatusSeeOther)
	}
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		err := StreamFile(w, r, filePath)
		if err != nil {
			logError(r.Method, filePath, err.Error())
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}
