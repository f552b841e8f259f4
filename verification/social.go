package verification

import (
	apierrors "github.com/jrsteele09/go-signin-service/internal/errors"
)

// NewSocialRecord wraps an identity asserted by a social connector. The
// connector has already validated the provider's token or callback; this
// only captures the result.
func NewSocialRecord(provider, externalID string, details map[string]string) (*Record, error) {
	if provider == "" || externalID == "" {
		return nil, apierrors.ErrInvalidRequest
	}
	record := newRecord(TypeSocial)
	record.Social = &SocialPayload{
		Provider:   provider,
		ExternalID: externalID,
		Details:    details,
	}
	return &record, nil
}

// NewEnterpriseRecord wraps an identity asserted by an enterprise SSO
// connector, keyed by the issuer that asserted it.
func NewEnterpriseRecord(issuer, externalID string, details map[string]string) (*Record, error) {
	if issuer == "" || externalID == "" {
		return nil, apierrors.ErrInvalidRequest
	}
	record := newRecord(TypeEnterpriseSSO)
	record.Enterprise = &EnterprisePayload{
		Issuer:     issuer,
		ExternalID: externalID,
		Details:    details,
	}
	return &record, nil
}
