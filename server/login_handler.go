package server

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-oauth-quickstart/session"
	"github.com/rs/zerolog/log"
)

// LoginHandler starts the authorization code flow: it binds a session to the browser,
// records a fresh state (and PKCE verifier) there and redirects to the provider.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := s.binder.ID(w, r)
		if err != nil {
			log.Err(err).Msg("Failed to bind session")
			s.writeErrorPage(w, http.StatusInternalServerError, fmt.Sprintf("Failed to start session: %v", err))
			return
		}

		state, err := generateRandomString(stateBytes)
		if err != nil {
			s.writeErrorPage(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate state: %v", err))
			return
		}

		authURL, err := s.clients.Web.GenOAuthURL(state)
		if err != nil {
			s.writeErrorPage(w, http.StatusInternalServerError, fmt.Sprintf("Failed to get OAuth URL: %v", err))
			return
		}

		_, err = s.sessions.Update(sessionID, func(d *session.Data) error {
			d.State = state
			d.CodeVerifier = authURL.CodeVerifier
			return nil
		})
		if err != nil {
			s.writeErrorPage(w, http.StatusInternalServerError, fmt.Sprintf("Failed to save session: %v", err))
			return
		}

		http.Redirect(w, r, authURL.URL, http.StatusFound)
	}
}
