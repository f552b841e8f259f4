package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	apierrors "github.com/jrsteele09/go-signin-service/internal/errors"
	"github.com/jrsteele09/go-signin-service/saml"
)

const samlSessionCookieName = "saml_session_id"

const contentTypeSAMLMetadata = "application/samlmetadata+xml"

// SAMLAuthnHandler accepts an SP-initiated authentication request over the
// redirect (GET) or form-POST binding, opens a correlation session and sends
// the user into the interactive sign-in flow.
func (s *Server) SAMLAuthnHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appID := r.PathValue("appID")

		var in saml.AuthnRequestInput
		switch r.Method {
		case http.MethodGet:
			query := r.URL.Query()
			in = saml.AuthnRequestInput{
				Binding:     saml.BindingRedirect,
				SAMLRequest: query.Get("SAMLRequest"),
				RelayState:  query.Get("RelayState"),
				SigAlg:      query.Get("SigAlg"),
				Signature:   query.Get("Signature"),
				RawQuery:    r.URL.RawQuery,
			}
		default:
			if err := r.ParseForm(); err != nil {
				writeError(w, r, apierrors.ErrInvalidRequest)
				return
			}
			in = saml.AuthnRequestInput{
				Binding:     saml.BindingPost,
				SAMLRequest: r.PostFormValue("SAMLRequest"),
				RelayState:  r.PostFormValue("RelayState"),
			}
		}

		result, err := s.handshake.HandleAuthnRequest(r.Context(), appID, in)
		if err != nil {
			writeSAMLError(w, r, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     samlSessionCookieName,
			Value:    result.SessionID,
			Path:     "/saml",
			HttpOnly: true,
			Secure:   s.features.SecureCookies,
			SameSite: http.SameSiteStrictMode,
		})
		http.Redirect(w, r, result.RedirectTo, http.StatusFound)
	}
}

// SAMLCallbackHandler completes the handshake after the interactive sign-in
// flow returns with an authorization code, delivering the signed response to
// the service provider via an auto-submitting form.
func (s *Server) SAMLCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appID := r.PathValue("appID")

		var sessionID string
		if cookie, err := r.Cookie(samlSessionCookieName); err == nil {
			sessionID = cookie.Value
		}

		query := r.URL.Query()
		result, err := s.handshake.HandleCallback(r.Context(), appID, saml.CallbackInput{
			SessionID:  sessionID,
			Code:       query.Get("code"),
			State:      query.Get("state"),
			ErrorParam: query.Get("error"),
		})
		if err != nil {
			writeSAMLError(w, r, err)
			return
		}

		// The correlation session is consumed; drop the cookie with it.
		http.SetCookie(w, &http.Cookie{
			Name:     samlSessionCookieName,
			Value:    "",
			Path:     "/saml",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.features.SecureCookies,
			SameSite: http.SameSiteStrictMode,
		})

		form, err := saml.RenderPostForm(result)
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", contentTypeHTML)
		_, _ = w.Write(form)
	}
}

// SAMLMetadataHandler serves the signed identity provider descriptor.
func (s *Server) SAMLMetadataHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metadata, err := s.handshake.Metadata(r.PathValue("appID"))
		if err != nil {
			writeSAMLError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", contentTypeSAMLMetadata)
		_, _ = w.Write(metadata)
	}
}

// writeSAMLError translates repository misses into the uniform client-facing
// taxonomy before rendering.
func writeSAMLError(w http.ResponseWriter, r *http.Request, err error) {
	if apierrors.Is(err, saml.ErrApplicationNotFound) {
		log.Err(err).Str("path", r.URL.Path).Msg("unknown saml application")
		writeError(w, r, apierrors.ErrInvalidRequest)
		return
	}
	writeError(w, r, err)
}
