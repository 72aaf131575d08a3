package server

func (s *Server) initRoutes() {
	// Account and session API
	s.RegisterRouteFunc("POST "+RouteAPIUsers, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAPIUsers, ChainMiddleware(s.ListUsersHandler(), s.APIMiddleware(s.TokenMiddleware, s.RequireSession)...))
	s.RegisterRouteFunc("POST "+RouteAPILogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAPISession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware(s.TokenMiddleware)...))
	s.RegisterRouteFunc("GET "+RouteAPISessions, ChainMiddleware(s.ListSessionsHandler(), s.APIMiddleware(s.TokenMiddleware, s.RequireSession)...))

	// Preflight for every API route
	s.RegisterRouteFunc("OPTIONS /api/", ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))

	// Social login
	s.RegisterRouteFunc("GET "+RouteSocialLogin, ChainMiddleware(s.SocialLoginHandler(), s.BrowserMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteSocialCallback, ChainMiddleware(s.SocialCallbackHandler(), s.BrowserMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	if s.metricsHandler != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, s.metricsHandler)
	}
}
