package config

const (
	AuthPathPrefix   = "/auth"
	APIPathPrefix    = "/api/"
	PublicPathPrefix = "/public/"
	UploadsURLPath   = "/uploads/"
	HealthPath       = "/healthz"
	FaviconPath      = "/favicon.ico"
)

const LogoutPath = AuthPathPrefix + "/logout"
