package server

import (
	"github.com/jrsteele09/go-oauth-quickstart/internal/config"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteIndex, ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))

	switch s.flow {
	case config.FlowWeb, config.FlowPKCE:
		s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.HTMLMiddleWare()...))
		s.RegisterRouteHandler("GET "+RouteCallback, ChainMiddleware(s.CallbackHandler(), s.HTMLMiddleWare()...))
		s.registerRefreshRoutes()
		s.registerUsersMeRoute()

	case config.FlowDevice:
		s.registerRefreshRoutes()
		s.registerUsersMeRoute()

	case config.FlowJWT:
		s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.JWTLoginHandler(), s.HTMLMiddleWare()...))
		s.RegisterRouteHandler("GET "+RouteCallback, ChainMiddleware(s.JWTCallbackHandler(), s.HTMLMiddleWare()...))
		s.RegisterRouteHandler("GET "+RouteToken, ChainMiddleware(s.JWTTokenHandler(), s.APIMiddleware()...))
	}

	s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())
	s.RegisterRouteFunc("GET "+RouteHealthz, ChainMiddleware(s.HealthzHandler(), s.APIMiddleware()...))
}

func (s *Server) registerRefreshRoutes() {
	s.RegisterRouteHandler("GET "+RouteRefreshToken, ChainMiddleware(s.RefreshTokenHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteRefreshToken, ChainMiddleware(s.RefreshTokenHandler(), s.APIMiddleware()...))
}

func (s *Server) registerUsersMeRoute() {
	if s.clients.UserInfo == nil {
		return
	}
	s.RegisterRouteHandler("GET "+RouteUsersMe, ChainMiddleware(s.UsersMeHandler(), s.APIMiddleware()...))
}
