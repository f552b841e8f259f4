package saml

import (
	"context"
	"crypto/x509"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	saml2 "github.com/russellhaering/gosaml2"
	"golang.org/x/sync/errgroup"

	apierrors "github.com/jrsteele09/go-signin-service/internal/errors"
)

// Handshake orchestrates SP-initiated sign-on: it accepts a service
// provider's authentication request, parks it in a correlation session while
// the user signs in through the interactive flow, and turns the resulting
// authorization code into a signed response.
type Handshake struct {
	apps      ApplicationRepo
	sessions  SessionRepo
	idp       IdPConfigRepo
	exchanger ClaimsExchanger
	endpoint  string
	logger    zerolog.Logger
	nowTime   func() time.Time
}

type HandshakeOption func(*Handshake)

// WithNowTime overrides the clock (primarily for testing).
func WithNowTime(nowFunc func() time.Time) HandshakeOption {
	return func(h *Handshake) {
		h.nowTime = nowFunc
	}
}

func NewHandshake(
	apps ApplicationRepo,
	sessions SessionRepo,
	idp IdPConfigRepo,
	exchanger ClaimsExchanger,
	endpoint string,
	logger zerolog.Logger,
	options ...HandshakeOption,
) (*Handshake, error) {
	if apps == nil || sessions == nil || idp == nil || exchanger == nil {
		return nil, errors.New("[NewHandshake] missing dependencies")
	}
	if endpoint == "" {
		return nil, errors.New("[NewHandshake] endpoint required")
	}

	h := &Handshake{
		apps:      apps,
		sessions:  sessions,
		idp:       idp,
		exchanger: exchanger,
		endpoint:  endpoint,
		logger:    logger,
		nowTime:   time.Now,
	}
	for _, option := range options {
		option(h)
	}
	return h, nil
}

// AuthnRequestInput is one inbound authentication request as extracted from
// the transport. RawQuery carries the untouched query string for redirect
// binding signature verification.
type AuthnRequestInput struct {
	Binding     Binding
	SAMLRequest string
	RelayState  string
	SigAlg      string
	Signature   string
	RawQuery    string
}

// AuthnResult tells the transport where to send the user and which
// correlation session to pin in the cookie.
type AuthnResult struct {
	SessionID  string
	RedirectTo string
}

// HandleAuthnRequest validates an inbound authentication request, opens a
// correlation session and hands the user off to the interactive sign-in
// flow. Invalid requests are reported uniformly; the concrete reason is only
// logged server side.
func (h *Handshake) HandleAuthnRequest(ctx context.Context, applicationID string, in AuthnRequestInput) (*AuthnResult, error) {
	var (
		app *Application
		idp *IdentityProvider
	)
	group, _ := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		app, err = h.apps.Get(applicationID)
		return err
	})
	group.Go(func() error {
		var err error
		idp, err = h.idp.Get()
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, errors.Wrap(err, "[Handshake.HandleAuthnRequest] resolve configuration")
	}

	if app.EntityID == "" || app.ACSURL == "" || idp.EntityID == "" {
		return nil, apierrors.ErrConfigurationIncomplete
	}

	cert, err := parseCertificate(app.CertificatePEM)
	if err != nil {
		h.logger.Warn().Err(err).Str("application_id", applicationID).Msg("unusable service provider certificate")
		return nil, apierrors.ErrConfigurationIncomplete
	}

	request, err := h.parseRequest(cert, in)
	if err != nil {
		h.logger.Warn().Err(err).Str("application_id", applicationID).Msg("rejected authentication request")
		return nil, apierrors.ErrInvalidRequest
	}

	if request.Issuer != app.EntityID {
		h.logger.Warn().
			Str("application_id", applicationID).
			Str("issuer", request.Issuer).
			Msg("authentication request issuer does not match registered entity id")
		return nil, apierrors.ErrInvalidRequest
	}

	now := h.nowTime()
	session := &Session{
		ID:            uuid.NewString(),
		ApplicationID: applicationID,
		State:         uuid.NewString(),
		RequestID:     request.ID,
		RawRequest:    in.SAMLRequest,
		Binding:       string(in.Binding),
		RelayState:    in.RelayState,
		CreatedAt:     now,
		ExpiresAt:     now.Add(SessionLifetime),
	}
	if err := h.sessions.Insert(session); err != nil {
		return nil, errors.Wrap(err, "[Handshake.HandleAuthnRequest] insert session")
	}

	return &AuthnResult{
		SessionID:  session.ID,
		RedirectTo: h.authorizeURL(applicationID, session.State),
	}, nil
}

func (h *Handshake) parseRequest(cert *x509.Certificate, in AuthnRequestInput) (*saml2.AuthNRequest, error) {
	switch in.Binding {
	case BindingRedirect:
		return parseRedirectBinding(cert, in.SAMLRequest, in.SigAlg, in.Signature, in.RawQuery)
	case BindingPost:
		return parsePostBinding(cert, in.SAMLRequest)
	default:
		return nil, errors.Errorf("unsupported binding %q", in.Binding)
	}
}

// authorizeURL builds the internal authorization request that drives the
// interactive sign-in flow.
func (h *Handshake) authorizeURL(applicationID, state string) string {
	query := url.Values{}
	query.Set("client_id", applicationID)
	query.Set("redirect_uri", h.callbackURI(applicationID))
	query.Set("response_type", "code")
	query.Set("scope", "openid profile email")
	query.Set("state", state)
	return h.endpoint + "/oauth2/authorize?" + query.Encode()
}

// callbackURI is derived from the service endpoint and application id, never
// from request input.
func (h *Handshake) callbackURI(applicationID string) string {
	return h.endpoint + "/saml/" + applicationID + "/callback"
}

// CallbackInput is the authorization callback as extracted from the
// transport, together with the correlation session id from the cookie.
type CallbackInput struct {
	SessionID  string
	Code       string
	State      string
	ErrorParam string
}

// CallbackResult is a signed response ready for form-POST delivery.
type CallbackResult struct {
	Destination  string
	SAMLResponse string
	RelayState   string
}

// HandleCallback completes the handshake: it correlates the callback with
// the pending session, exchanges the code for identity claims and mints the
// signed response. The session is consumed on success.
func (h *Handshake) HandleCallback(ctx context.Context, applicationID string, in CallbackInput) (*CallbackResult, error) {
	if in.ErrorParam != "" {
		h.logger.Warn().
			Str("application_id", applicationID).
			Str("error", in.ErrorParam).
			Msg("authorization callback reported an error")
		return nil, apierrors.ErrInvalidRequest
	}
	if in.Code == "" {
		return nil, apierrors.ErrInvalidRequest
	}

	session, err := h.sessions.Get(in.SessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, apierrors.ErrSessionNotFound
		}
		return nil, errors.Wrap(err, "[Handshake.HandleCallback] load session")
	}
	if session.ApplicationID != applicationID || session.State != in.State {
		h.logger.Warn().
			Str("application_id", applicationID).
			Str("session_id", session.ID).
			Msg("callback does not match pending session")
		return nil, apierrors.ErrInvalidRequest
	}

	app, err := h.apps.Get(applicationID)
	if err != nil {
		return nil, errors.Wrap(err, "[Handshake.HandleCallback] resolve application")
	}
	if app.EntityID == "" || app.ACSURL == "" {
		return nil, apierrors.ErrConfigurationIncomplete
	}

	redirectURI := h.callbackURI(applicationID)
	if app.RedirectURI != redirectURI {
		return nil, apierrors.ErrInvalidRedirectURI
	}

	claims, err := h.exchanger.Exchange(ctx, applicationID, app.OIDCClientSecret, in.Code, redirectURI)
	if err != nil {
		return nil, errors.Wrap(err, "[Handshake.HandleCallback] exchange code")
	}

	idp, err := h.idp.Get()
	if err != nil {
		return nil, errors.Wrap(err, "[Handshake.HandleCallback] resolve identity provider")
	}
	keyStore, err := signingKeyStore(idp)
	if err != nil {
		h.logger.Error().Err(err).Msg("identity provider signing material is unusable")
		return nil, apierrors.ErrConfigurationIncomplete
	}

	samlResponse, err := buildSignedResponse(keyStore, responseInput{
		IdPEntityID: idp.EntityID,
		Application: app,
		RequestID:   session.RequestID,
		Claims:      claims,
		Now:         h.nowTime(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Handshake.HandleCallback] build response")
	}

	if err := h.sessions.Delete(session.ID); err != nil {
		h.logger.Warn().Err(err).Str("session_id", session.ID).Msg("failed to delete consumed session")
	}

	return &CallbackResult{
		Destination:  app.ACSURL,
		SAMLResponse: samlResponse,
		RelayState:   session.RelayState,
	}, nil
}
