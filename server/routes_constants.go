package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// API Routes
	RouteAPIUsers    = "/api/users"
	RouteAPILogin    = "/api/login"
	RouteAPISession  = "/api/session"
	RouteAPISessions = "/api/sessions"

	// Social login routes (patterns)
	RouteSocialLogin    = "/auth/{provider}"
	RouteSocialCallback = "/auth/{provider}/callback"

	// Operational routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"

	// RouteHome is where social logins land, successful or not
	RouteHome = "/"
)
