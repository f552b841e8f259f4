package config

type Config interface {
	EnvConfig
	CookieConfig
	FederationConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetRedisAddr() string
	GetTokenSigningKey() string
	GetPostSignInRedirect() string
	GetEnv() string
}

type CookieConfig interface {
	GetSessionCookieName() string
	GetSecureCookies() bool
}

type FederationConfig interface {
	GetSamlEntityID() string
	GetSamlCertificate() string
	GetSamlPrivateKey() string
}

type mainConfig struct {
	EnvVars
	Cookies
	Federation
}

func New() Config {
	return mainConfig{}
}

// Features are process-wide flags derived from the environment once at
// startup and threaded into route construction as an immutable value.
type Features struct {
	DevFeaturesEnabled bool
	SecureCookies      bool
}

func NewFeatures(c Config) Features {
	return Features{
		DevFeaturesEnabled: c.GetEnv() == "DEV",
		SecureCookies:      c.GetSecureCookies(),
	}
}
