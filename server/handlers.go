package server

import (
	"html"
	"net/http"

	"github.com/jrsteele09/go-oauth-quickstart/internal/config"
)

// IndexHandler renders the home page
func (s *Server) IndexHandler() http.HandlerFunc {
	action := ""
	switch s.flow {
	case config.FlowWeb, config.FlowPKCE, config.FlowJWT:
		action = `<a class="btn" href="` + RouteLogin + `">Login</a>`
	case config.FlowDevice:
		action = `<a class="btn" href="` + RouteRefreshToken + `">Refresh token</a>`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		tokenStatus := "not authorized"
		if tok, ok := s.cache.Get(s.cacheKey(r)); ok {
			tokenStatus = "expires " + tok.ExpiresAtDisplay()
		}

		s.writePage(w, http.StatusOK, s.pages.index, map[string]any{
			"app_name":      html.EscapeString(s.config.GetAppName()),
			"flow":          string(s.flow),
			"client_type":   html.EscapeString(s.app.ClientType),
			"client_id":     html.EscapeString(s.app.ClientID),
			"coze_www_base": html.EscapeString(s.app.CozeWWWBase),
			"token_status":  tokenStatus,
			"action":        action,
		})
	}
}

type healthResponse struct {
	Status      string `json:"status"`
	Flow        string `json:"flow"`
	TokenCached bool   `json:"token_cached"`
}

// HealthzHandler reports liveness and whether a token is held for the caller
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, cached := s.cache.Get(s.cacheKey(r))
		writeJSON(w, http.StatusOK, healthResponse{
			Status:      "ok",
			Flow:        string(s.flow),
			TokenCached: cached,
		})
	}
}
