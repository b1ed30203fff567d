package auth

import (
	"net/http"
	"time"

	"github.com/amercogo/MojKutakAdmin/internal/config"
	"github.com/amercogo/MojKutakAdmin/internal/model"
	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
	"github.com/go-chi/chi/v5"
)

// ClerkAuthProvider trusts sessions issued by Clerk. Sign-in happens on the
// hosted Clerk pages; the session JWT arrives in the __session cookie or the
// Authorization header.
type ClerkAuthProvider struct {
	cookieExtractor clerkhttp.AuthorizationOption
}

var _ AuthProvider = (*ClerkAuthProvider)(nil)

func NewClerkAuthProvider(clerkKey string) *ClerkAuthProvider {
	clerk.SetKey(clerkKey)

	return &ClerkAuthProvider{
		cookieExtractor: clerkhttp.AuthorizationJWTExtractor(func(r *http.Request) string {
			cookie, err := r.Cookie(config.CookieClerkSession)
			if err != nil || cookie == nil {
				return ""
			}
			return cookie.Value
		}),
	}
}

func (c *ClerkAuthProvider) WithSession(next http.Handler) http.Handler {
	return clerkhttp.WithHeaderAuthorization(c.cookieExtractor)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := clerk.SessionClaimsFromContext(r.Context())
		if !ok || claims.Subject == "" {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), model.UserID(claims.Subject))))
	}))
}

func (c *ClerkAuthProvider) RegisterRoutes(r chi.Router) {
	r.Get("/login", HandleLoginPage)
	r.Post("/logout", c.HandleLogout)
}

// HandleLogout drops the local session cookie. The Clerk session itself is
// ended by the Clerk frontend.
func (c *ClerkAuthProvider) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:    config.CookieClerkSession,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
		MaxAge:  -1,
	})
	w.WriteHeader(http.StatusNoContent)
}
