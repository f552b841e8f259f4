package experience

import (
	"github.com/jrsteele09/go-signin-service/users"
	"github.com/jrsteele09/go-signin-service/verification"
)

// Event is the user's declared intent for the current interaction session.
type Event string

const (
	EventRegister       Event = "Register"
	EventSignIn         Event = "SignIn"
	EventForgotPassword Event = "ForgotPassword"
)

// EnterpriseConnector configures one enterprise SSO issuer the tenant
// trusts. OrganizationAutoJoin controls whether users registering through
// the issuer join its organizations automatically.
type EnterpriseConnector struct {
	Issuer               string   `json:"issuer"`
	OrganizationAutoJoin bool     `json:"organization_auto_join"`
	TrustedEmailDomains  []string `json:"trusted_email_domains,omitempty"`
}

// SignInExperience is the tenant's sign-in policy: which interaction events
// are available and which verification methods may identify a user for each
// event.
type SignInExperience struct {
	EnabledEvents         []Event              `json:"enabled_events"`
	SignInMethods         []verification.Type  `json:"sign_in_methods"`
	SignUpMethods         []verification.Type  `json:"sign_up_methods"`
	ForgotPasswordMethods []verification.Type  `json:"forgot_password_methods"`
	PasswordPolicy        users.PasswordPolicy `json:"password_policy"`

	SocialProviders      []string              `json:"social_providers,omitempty"`
	EnterpriseConnectors []EnterpriseConnector `json:"enterprise_connectors,omitempty"`
}

// Default mirrors the experience applied to new tenants: everything enabled,
// password or code sign-in, recovery by code only.
func Default() SignInExperience {
	return SignInExperience{
		EnabledEvents: []Event{EventRegister, EventSignIn, EventForgotPassword},
		SignInMethods: []verification.Type{
			verification.TypePassword,
			verification.TypeEmailCode,
			verification.TypePhoneCode,
			verification.TypeSocial,
			verification.TypeEnterpriseSSO,
		},
		SignUpMethods: []verification.Type{
			verification.TypeEmailCode,
			verification.TypePhoneCode,
			verification.TypeSocial,
			verification.TypeEnterpriseSSO,
		},
		ForgotPasswordMethods: []verification.Type{
			verification.TypeEmailCode,
			verification.TypePhoneCode,
		},
		PasswordPolicy: users.DefaultPasswordPolicy(),
	}
}

// Connector returns the enterprise connector for an issuer, or nil.
func (se SignInExperience) Connector(issuer string) *EnterpriseConnector {
	for i := range se.EnterpriseConnectors {
		if se.EnterpriseConnectors[i].Issuer == issuer {
			return &se.EnterpriseConnectors[i]
		}
	}
	return nil
}
