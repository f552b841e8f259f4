package server

func (s *Server) initRoutes() {
	// Interaction API routes
	s.RegisterRouteHandler("PUT "+RouteInteractionEvent, ChainMiddleware(s.InteractionEventHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("PATCH "+RouteInteractionProfile, ChainMiddleware(s.InteractionProfileHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteInteractionIdentify, ChainMiddleware(s.IdentifyHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteInteractionSubmit, ChainMiddleware(s.SubmitHandler(), s.APIMiddleware()...))

	// Verification routes
	s.RegisterRouteHandler("POST "+RouteVerifyPassword, ChainMiddleware(s.VerifyPasswordHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteVerifyCode, ChainMiddleware(s.VerifyCodeHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteVerifySocial, ChainMiddleware(s.VerifySocialHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteVerifyEnterpriseSSO, ChainMiddleware(s.VerifyEnterpriseSSOHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteVerifyTOTP, ChainMiddleware(s.VerifyTOTPHandler(), s.APIMiddleware()...))

	// SAML identity-provider routes
	s.RegisterRouteHandler("GET "+RouteSAMLAuthn, ChainMiddleware(s.SAMLAuthnHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteSAMLAuthn, ChainMiddleware(s.SAMLAuthnHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteSAMLCallback, ChainMiddleware(s.SAMLCallbackHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteSAMLMetadata, ChainMiddleware(s.SAMLMetadataHandler(), s.APIMiddleware()...))
}
