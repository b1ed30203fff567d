// Package routes wires the HTTP handlers into one router.
package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/amercogo/MojKutakAdmin/internal/auth"
	"github.com/amercogo/MojKutakAdmin/internal/config"
	"github.com/amercogo/MojKutakAdmin/internal/editor"
	"github.com/amercogo/MojKutakAdmin/internal/posts"
	"github.com/amercogo/MojKutakAdmin/internal/render"
	"github.com/amercogo/MojKutakAdmin/internal/sse"
	"github.com/amercogo/MojKutakAdmin/internal/stats"
	"github.com/amercogo/MojKutakAdmin/internal/util"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// API Routes
const (
	APIPosts     = "/api/posts"
	APIEditor    = "/api/editor"
	APIDashboard = "/api/dashboard"
	APIPreview   = "/api/preview"
	APISyntaxCSS = "/api/preview/syntax.css"
	APIEvents    = "/api/events"
	PublicPosts  = "/public/posts"
	RootPath     = "/"
)

type Deps struct {
	Logger zerolog.Logger
	Auth   auth.AuthProvider
	Editor *editor.Handler
	Posts  *posts.Handler
	Stats  *stats.Handler
	Events *sse.SSEClients

	// UploadsDir is served under /uploads/ when images are stored locally.
	UploadsDir string

	LoginPath     string
	DashboardPath string

	// Timeout bounds every request except event streams. Zero disables it.
	Timeout time.Duration

	// Health reports whether the backing services are reachable.
	Health func(ctx context.Context) error
}

func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(d.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(secureHeaders)
	r.Use(d.Auth.WithSession)
	r.Use(auth.Gate(d.LoginPath, d.DashboardPath))

	r.Get(config.HealthPath, healthHandler(d.Health))
	r.Get(config.FaviconPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Route(config.AuthPathPrefix, d.Auth.RegisterRoutes)
	r.Mount(PublicPosts, d.Stats.IngestRoutes())

	if d.UploadsDir != "" {
		fileServer := http.StripPrefix(config.UploadsURLPath, http.FileServer(http.Dir(d.UploadsDir)))
		r.Handle(config.UploadsURLPath+"*", fileServer)
	}

	// Event streams stay outside the gzip group so frames are not buffered.
	r.Get(APIEvents, d.Events.ServeHTTP)

	r.Group(func(r chi.Router) {
		if d.Timeout > 0 {
			r.Use(middleware.Timeout(d.Timeout))
		}
		r.Use(gzip)
		r.Mount(APIPosts, d.Posts.Routes())
		r.Mount(APIEditor, d.Editor.Routes())
		r.Mount(APIDashboard, d.Stats.DashboardRoutes())
		r.Post(APIPreview, render.HandlePreview)
		r.Get(APISyntaxCSS, render.HandleSyntaxCSS)
		r.Get(d.DashboardPath, d.Stats.Summary)
	})

	r.Get(RootPath, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, d.DashboardPath, http.StatusFound)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		util.WriteJSON(w, http.StatusNotFound, map[string]string{"error": config.HTTPErrNotFound})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		util.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": config.HTTPErrMethodNotAllowed})
	})

	return r
}

func gzip(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				zerolog.Ctx(r.Context()).Error().Err(err).Msg("Health check failed")
				util.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		util.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
