package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteIndex = "/{$}"

	// Authorization code flows (web, PKCE) and the JWT demo
	RouteLogin    = "/login"
	RouteCallback = "/callback"

	// Token endpoints
	RouteRefreshToken = "/refresh_token"
	RouteToken        = "/token"

	// Provider API proxy
	RouteUsersMe = "/users_me"

	// Operations
	RouteMetrics = "/metrics"
	RouteHealthz = "/healthz"
)
