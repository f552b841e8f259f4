package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Interaction API routes
	RouteInteractionEvent    = "/api/interaction/event"
	RouteInteractionProfile  = "/api/interaction/profile"
	RouteInteractionIdentify = "/api/interaction/identify"
	RouteInteractionSubmit   = "/api/interaction/submit"

	// Verification API routes
	RouteVerifyPassword      = "/api/interaction/verifications/password"
	RouteVerifyCode          = "/api/interaction/verifications/code"
	RouteVerifySocial        = "/api/interaction/verifications/social"
	RouteVerifyEnterpriseSSO = "/api/interaction/verifications/enterprise-sso"
	RouteVerifyTOTP          = "/api/interaction/verifications/totp"

	// SAML identity-provider routes
	RouteSAMLAuthn    = "/saml/{appID}/authn"
	RouteSAMLCallback = "/saml/{appID}/callback"
	RouteSAMLMetadata = "/saml/{appID}/metadata"
)
