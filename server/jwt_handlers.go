package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/go-oauth-quickstart/token"
	"github.com/rs/zerolog/log"
)

// JWTLoginHandler has nothing to authorize interactively; it goes straight to /callback
func (s *Server) JWTLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, RouteCallback, http.StatusFound)
	}
}

// JWTCallbackHandler performs a fresh assertion exchange and shows the token
func (s *Server) JWTCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, err := s.jwtToken(r)
		if err != nil {
			if isAJAX(r) {
				writeTokenError(w, fmt.Errorf("failed to get access token: %w", err))
				return
			}
			s.writeErrorPage(w, http.StatusInternalServerError, fmt.Sprintf("Failed to get access token: %v", err))
			return
		}
		s.writeToken(w, r, tok, false)
	}
}

// JWTTokenHandler performs a fresh assertion exchange on every call and returns the token as JSON
func (s *Server) JWTTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, err := s.jwtToken(r)
		if err != nil {
			writeTokenError(w, fmt.Errorf("failed to get access token: %w", err))
			return
		}
		writeJSON(w, http.StatusOK, tok.Response(false))
	}
}

func (s *Server) jwtToken(r *http.Request) (token.Token, error) {
	start := time.Now()
	tok, err := s.clients.JWT.GetAccessToken(r.Context())
	s.observe(OpJWT, start, err)
	if err != nil {
		log.Err(err).Msg("JWT token exchange failed")
		return token.Token{}, err
	}

	// The last token is kept for /healthz and the index page
	s.cache.Set(s.app.ClientID, tok)
	log.Info().Str("flow", string(s.flow)).Str("expires_at", tok.ExpiresAtDisplay()).Msg("Access token obtained")
	return tok, nil
}
