// Package auth resolves the signed-in admin for each request and gates the
// protected routes.
package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

var authLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	authLogger = l
}

type AuthProvider interface {
	// WithSession stores the user id of a valid session in the request
	// context. Requests without one pass through unchanged.
	WithSession(next http.Handler) http.Handler

	// RegisterRoutes adds the provider's sign-in and sign-out routes under /auth.
	RegisterRoutes(r chi.Router)
}
