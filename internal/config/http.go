package config

const (
	HCType        = "Content-Type"
	HCacheControl = "Cache-Control"
	HRedirect     = "X-Redirect"

	CTypeJSON = "application/json"
	CTypeHTML = "text/html; charset=utf-8"
	CTypeSSE  = "text/event-stream"
)

const (
	HTTPErrMethodNotAllowed = "Method not allowed"
	HTTPErrNotFound         = "Not found"
)

const (
	CookieSession      = "Authorization"
	CookieClerkSession = "__session"
)
