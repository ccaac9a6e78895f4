package server

import (
	"encoding/json"
	"html"
	"net/http"

	apperrors "github.com/jrsteele09/go-oauth-quickstart/internal/errors"
	"github.com/jrsteele09/go-oauth-quickstart/oauthmodel"
	"github.com/jrsteele09/go-oauth-quickstart/render"
	"github.com/rs/zerolog/log"
)

// Error codes of the JSON error body
const (
	errorCodeUnauthorized   = "unauthorized"
	errorCodeInvalidRequest = "invalid_request"
	errorCodeServerError    = "server_error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to write JSON response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, oauthmodel.ErrorResponse{Error: code, ErrorDescription: err.Error()})
}

// writeTokenError answers a token endpoint failure: no token is an authorization
// problem for the caller, anything else a failed provider call.
func writeTokenError(w http.ResponseWriter, err error) {
	if apperrors.Is(err, apperrors.ErrNoToken) {
		writeJSONError(w, http.StatusUnauthorized, errorCodeUnauthorized, err)
		return
	}
	writeJSONError(w, http.StatusInternalServerError, errorCodeServerError, err)
}

func (s *Server) writePage(w http.ResponseWriter, status int, tmpl string, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(render.Format(tmpl, data)))
}

// writeErrorPage renders the error page. Messages may carry request input, so they are escaped.
func (s *Server) writeErrorPage(w http.ResponseWriter, status int, msg string) {
	s.writePage(w, status, s.pages.error, map[string]any{
		"error":         html.EscapeString(msg),
		"coze_www_base": html.EscapeString(s.app.CozeWWWBase),
	})
}

func isAJAX(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}
