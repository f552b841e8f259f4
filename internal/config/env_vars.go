package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	baseURLVar    = "BASE_URL"
	redisAddrVar  = "REDIS_ADDR"
	signingKeyVar = "TOKEN_SIGNING_KEY"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Go SignIn Server")
}

// GetBaseURL returns the externally visible endpoint of this service
// (e.g. "https://signin.example.com"). It is used for the SAML callback
// redirect URIs and the authorization endpoint.
func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:8080")
}

func (EnvVars) GetRedisAddr() string {
	return GetEnv(redisAddrVar, "")
}

func (EnvVars) GetTokenSigningKey() string {
	return GetEnv(signingKeyVar, "")
}

func (EnvVars) GetPostSignInRedirect() string {
	return GetEnv("POST_SIGN_IN_REDIRECT", "/")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

type Cookies struct{}

var _ CookieConfig = Cookies{}

func (Cookies) GetSessionCookieName() string {
	return GetEnv("SESSION_COOKIE_NAME", "signin_session_id")
}

func (Cookies) GetSecureCookies() bool {
	return os.Getenv("ENV") != "" && os.Getenv("ENV") != "DEV"
}

// Federation holds the tenant-level SAML identity-provider material. The
// certificate and key are PEM blobs, usually mounted from a secret store.
type Federation struct{}

var _ FederationConfig = Federation{}

func (Federation) GetSamlEntityID() string {
	return GetEnv("SAML_ENTITY_ID", "")
}

func (Federation) GetSamlCertificate() string {
	return GetEnv("SAML_CERTIFICATE", "")
}

func (Federation) GetSamlPrivateKey() string {
	return GetEnv("SAML_PRIVATE_KEY", "")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
