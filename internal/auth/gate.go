package auth

import (
	"net/http"
	"path"
	"strings"

	"github.com/amercogo/MojKutakAdmin/internal/config"
	"github.com/amercogo/MojKutakAdmin/internal/util"
	"github.com/rs/zerolog"
)

var staticImageExts = map[string]bool{
	".svg":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Excluded reports whether p bypasses the gate entirely. Image files are
// only exempt outside the API and the dashboard.
func Excluded(p, dashboardPath string) bool {
	switch {
	case p == config.FaviconPath, p == config.HealthPath:
		return true
	case strings.HasPrefix(p, config.PublicPathPrefix), strings.HasPrefix(p, config.UploadsURLPath):
		return true
	case isAPIPath(p), underPath(p, dashboardPath):
		return false
	}
	return staticImageExts[strings.ToLower(path.Ext(p))]
}

func underPath(p, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return false
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

func isAuthPath(p string) bool {
	return underPath(p, config.AuthPathPrefix)
}

func isAPIPath(p string) bool {
	return strings.HasPrefix(p, config.APIPathPrefix)
}

// Gate must run after a provider's WithSession. Signed-out requests for
// protected pages are sent to loginPath and signed-in requests for the auth
// pages to dashboardPath. API requests get 401 with X-Redirect instead.
// Logout is always let through.
func Gate(loginPath, dashboardPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := r.URL.Path
			if Excluded(p, dashboardPath) {
				next.ServeHTTP(w, r)
				return
			}

			_, signedIn := UserIDFromContext(r.Context())

			switch {
			case !signedIn && !isAuthPath(p):
				if isAPIPath(p) {
					w.Header().Set(config.HRedirect, loginPath)
					util.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": config.ErrUnauthorized})
					return
				}
				zerolog.Ctx(r.Context()).Debug().Str("path", p).Msg("Redirecting to login")
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			case signedIn && isAuthPath(p) && p != config.LogoutPath:
				http.Redirect(w, r, dashboardPath, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
