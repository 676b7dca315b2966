package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes - Login, Registration & Logout
	RouteLogin        = "/login"
	RouteRegister     = "/register"
	RouteAuthLogin    = "/auth/login"
	RouteAuthRegister = "/auth/register"
	RouteAuthLogout   = "/auth/logout"

	// Guarded dashboard views
	RouteAppPrefix    = "/app/"
	RouteAppView      = RouteAppPrefix + "{view}"
	RouteDashboard    = RouteAppPrefix + "dashboard"
	RouteUnauthorized = "/unauthorized"

	// API Routes
	RouteAPIPrefix = "/api/"
	RouteAPIProxy  = RouteAPIPrefix + "{path...}"
	RouteSession   = "/session"

	// Operational Routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
)
