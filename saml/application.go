package saml

import "github.com/pkg/errors"

// ErrApplicationNotFound is returned when no SAML application exists for the
// requested id.
var ErrApplicationNotFound = errors.New("saml application not found")

// Application is one SAML service provider registered with this identity
// provider. EntityID and ACSURL come from the SP's metadata; the OIDC fields
// drive the internal code exchange that produces the identity claims.
type Application struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	EntityID       string `json:"entity_id"`       // Expected Issuer of inbound authentication requests
	ACSURL         string `json:"acs_url"`         // Assertion consumer service the response is posted to
	CertificatePEM string `json:"certificate_pem"` // SP signing certificate, verifies inbound request signatures

	OIDCClientSecret string `json:"oidc_client_secret"` // Registered secret for the code exchange
	RedirectURI      string `json:"redirect_uri"`       // Registered callback; must match the deterministic one
}

// ApplicationRepo resolves SAML application configuration by id.
type ApplicationRepo interface {
	Get(id string) (*Application, error)
}

// IdentityProvider is the tenant-level signing material this service uses to
// issue SAML responses and metadata.
type IdentityProvider struct {
	EntityID       string `json:"entity_id"`
	CertificatePEM string `json:"certificate_pem"`
	PrivateKeyPEM  string `json:"private_key_pem"`
}

// IdPConfigRepo resolves the tenant's identity-provider material.
type IdPConfigRepo interface {
	Get() (*IdentityProvider, error)
}

// StaticIdPConfig serves a fixed IdentityProvider, typically built from
// environment configuration at startup.
type StaticIdPConfig struct {
	IdP IdentityProvider
}

func (s StaticIdPConfig) Get() (*IdentityProvider, error) {
	idp := s.IdP
	return &idp, nil
}
