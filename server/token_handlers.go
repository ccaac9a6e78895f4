package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/jrsteele09/go-oauth-quickstart/internal/errors"
	"github.com/jrsteele09/go-oauth-quickstart/oauthmodel"
	"github.com/rs/zerolog/log"
)

// maxRefreshBody bounds the JSON body of POST /refresh_token
const maxRefreshBody = 64 << 10

// RefreshTokenHandler exchanges the refresh token for a new token. A POST body may supply
// the refresh token to exchange; otherwise the cached one is used. The cache only changes
// when the exchange succeeds.
func (s *Server) RefreshTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := s.cacheKey(r)

		var req oauthmodel.RefreshRequest
		if r.Method == http.MethodPost {
			err := json.NewDecoder(io.LimitReader(r.Body, maxRefreshBody)).Decode(&req)
			if err != nil && !errors.Is(err, io.EOF) {
				writeJSONError(w, http.StatusBadRequest, errorCodeInvalidRequest, fmt.Errorf("invalid request body: %w", err))
				return
			}
		}

		start := time.Now()
		fresh, err := s.cache.RefreshWith(r.Context(), key, req.RefreshToken, s.refresher())
		if !apperrors.Is(err, apperrors.ErrNoToken) {
			s.observe(OpRefresh, start, err)
		}
		if err != nil {
			log.Err(err).Str("flow", string(s.flow)).Msg("Failed to refresh token")
			writeTokenError(w, fmt.Errorf("failed to refresh token: %w", err))
			return
		}

		log.Info().Str("flow", string(s.flow)).Str("expires_at", fresh.ExpiresAtDisplay()).Msg("Token refreshed")
		writeJSON(w, http.StatusOK, fresh.Response(req.RefreshToken != ""))
	}
}

// UsersMeHandler returns the account behind ?access_token=, or behind the caller's cached token
func (s *Server) UsersMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessToken := r.URL.Query().Get("access_token")
		if accessToken == "" {
			tok, ok := s.cache.Get(s.cacheKey(r))
			if !ok || tok.AccessToken == "" {
				writeJSONError(w, http.StatusUnauthorized, errorCodeUnauthorized, errors.New("access token is required"))
				return
			}
			accessToken = tok.AccessToken
		}

		start := time.Now()
		user, err := s.clients.UserInfo.UsersMe(r.Context(), accessToken)
		s.observe(OpUsersMe, start, err)
		if err != nil {
			err = fmt.Errorf("failed to get user info: %w", err)
			if apperrors.Is(err, apperrors.ErrAuthorization) {
				writeJSONError(w, http.StatusUnauthorized, errorCodeUnauthorized, err)
				return
			}
			writeJSONError(w, http.StatusInternalServerError, errorCodeServerError, err)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}
