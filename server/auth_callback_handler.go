package server

import (
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/jrsteele09/go-oauth-quickstart/internal/config"
	apperrors "github.com/jrsteele09/go-oauth-quickstart/internal/errors"
	"github.com/jrsteele09/go-oauth-quickstart/session"
	"github.com/jrsteele09/go-oauth-quickstart/token"
	"github.com/rs/zerolog/log"
)

// CallbackHandler completes the authorization code flow. The state and PKCE verifier
// recorded at /login are consumed before the exchange, so each can be used once.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		code := query.Get("code")
		state := query.Get("state")

		// Check for authorization errors
		if errorParam := query.Get("error"); errorParam != "" {
			s.writeErrorPage(w, http.StatusBadRequest, fmt.Sprintf("Authorization failed: %s - %s", errorParam, query.Get("error_description")))
			return
		}

		if code == "" {
			s.writeErrorPage(w, http.StatusBadRequest, "Authorization failed: "+apperrors.ErrMissingCode.Error())
			return
		}

		sessionID, ok := s.binder.Lookup(r)
		if !ok {
			s.writeErrorPage(w, http.StatusBadRequest, "Authorization failed: "+apperrors.ErrSessionNotFound.Error())
			return
		}

		var codeVerifier string
		_, err := s.sessions.Update(sessionID, func(d *session.Data) error {
			if state == "" || d.State != state {
				return apperrors.ErrInvalidState
			}
			if s.flow == config.FlowPKCE && d.CodeVerifier == "" {
				return apperrors.ErrVerifierNotFound
			}
			codeVerifier = d.CodeVerifier
			d.State = ""
			d.CodeVerifier = ""
			return nil
		})
		if err != nil {
			s.writeErrorPage(w, http.StatusBadRequest, "Authorization failed: "+err.Error())
			return
		}

		start := time.Now()
		tok, err := s.clients.Web.GetAccessToken(r.Context(), code, codeVerifier)
		s.observe(OpExchange, start, err)
		if err != nil {
			log.Err(err).Str("flow", string(s.flow)).Msg("Token exchange failed")
			s.writeErrorPage(w, http.StatusInternalServerError, fmt.Sprintf("Failed to get access token: %v", err))
			return
		}

		s.cache.Set(s.sessionCacheKey(sessionID), tok)
		log.Info().Str("flow", string(s.flow)).Str("expires_at", tok.ExpiresAtDisplay()).Msg("Access token obtained")

		s.writeToken(w, r, tok, true)
	}
}

// writeToken answers a successful callback: JSON for AJAX callers, the callback page otherwise
func (s *Server) writeToken(w http.ResponseWriter, r *http.Request, tok token.Token, includeRefresh bool) {
	if isAJAX(r) {
		writeJSON(w, http.StatusOK, tok.Response(includeRefresh))
		return
	}

	resp := tok.Response(includeRefresh)
	s.writePage(w, http.StatusOK, s.pages.callback, map[string]any{
		"token_type":    html.EscapeString(resp.TokenType),
		"access_token":  html.EscapeString(resp.AccessToken),
		"refresh_token": html.EscapeString(resp.RefreshToken),
		"expires_in":    tok.ExpiresAtDisplay(),
		"coze_www_base": html.EscapeString(s.app.CozeWWWBase),
	})
}
