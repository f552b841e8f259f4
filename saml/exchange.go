package saml

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// Claims is the subset of the signed-in user's identity that flows into the
// assertion.
type Claims struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// ClaimsExchanger turns an authorization code from the sign-in flow into the
// verified claims of the user it was issued for.
type ClaimsExchanger interface {
	Exchange(ctx context.Context, applicationID, clientSecret, code, redirectURI string) (*Claims, error)
}

var _ ClaimsExchanger = (*OIDCExchanger)(nil)

// OIDCExchanger exchanges the code against the local OIDC issuer and
// verifies the returned id token before trusting its claims.
type OIDCExchanger struct {
	issuer string
}

func NewOIDCExchanger(issuer string) *OIDCExchanger {
	return &OIDCExchanger{issuer: issuer}
}

func (e *OIDCExchanger) Exchange(ctx context.Context, applicationID, clientSecret, code, redirectURI string) (*Claims, error) {
	provider, err := oidc.NewProvider(ctx, e.issuer)
	if err != nil {
		return nil, errors.Wrap(err, "[OIDCExchanger.Exchange] discover provider")
	}

	conf := oauth2.Config{
		ClientID:     applicationID,
		ClientSecret: clientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  redirectURI,
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "[OIDCExchanger.Exchange] exchange code")
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("[OIDCExchanger.Exchange] token response missing id_token")
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: applicationID})
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.Wrap(err, "[OIDCExchanger.Exchange] verify id_token")
	}

	var claims Claims
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.Wrap(err, "[OIDCExchanger.Exchange] decode claims")
	}
	return &claims, nil
}
