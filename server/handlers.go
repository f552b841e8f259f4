package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-signin-service/interaction"
	apierrors "github.com/jrsteele09/go-signin-service/internal/errors"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)

// sessionID returns the sign-in session id from the request cookie, minting
// a fresh id and setting the cookie when none is present yet.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	cookieName := s.config.GetSessionCookieName()
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.features.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// loadSession reconstructs the interaction session bound to the request
// cookie.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*interaction.Session, error) {
	return interaction.Load(r.Context(), s.sessionID(w, r), s.deps)
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// writeError renders client-facing errors as structured JSON. Anything
// outside the taxonomy is logged server-side and reported as an opaque 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *apierrors.Error
	if !apierrors.As(err, &apiErr) {
		log.Err(err).Str("path", r.URL.Path).Msg("unhandled handler error")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, apierrors.HTTPStatus(apiErr.Code), errorBody{
		Code:    string(apiErr.Code),
		Message: apiErr.Message,
		Data:    apiErr.Data,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeBody(r *http.Request, into any) error {
	defer func() { _ = r.Body.Close() }()
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return apierrors.ErrInvalidRequest
	}
	return nil
}
