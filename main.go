package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/amercogo/MojKutakAdmin/internal/auth"
	"github.com/amercogo/MojKutakAdmin/internal/config"
	"github.com/amercogo/MojKutakAdmin/internal/db"
	"github.com/amercogo/MojKutakAdmin/internal/editor"
	"github.com/amercogo/MojKutakAdmin/internal/imaging"
	"github.com/amercogo/MojKutakAdmin/internal/logger"
	"github.com/amercogo/MojKutakAdmin/internal/posts"
	"github.com/amercogo/MojKutakAdmin/internal/render"
	"github.com/amercogo/MojKutakAdmin/internal/repository"
	"github.com/amercogo/MojKutakAdmin/internal/routes"
	"github.com/amercogo/MojKutakAdmin/internal/sse"
	"github.com/amercogo/MojKutakAdmin/internal/stats"
	"github.com/amercogo/MojKutakAdmin/internal/util/compression"
)

const (
	janitorInterval = time.Minute
	watchInterval   = 30 * time.Second
)

type app struct {
	db      db.DB
	handler http.Handler
	events  *sse.SSEClients

	postRepo *repository.DBPostRepository
	sessions *editor.MemoryRepository
}

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file loaded")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	l := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Logger = l
	setLoggers(l)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, l); err != nil {
		l.Fatal().Err(err).Msg("Server stopped with error")
	}
}

func setLoggers(l zerolog.Logger) {
	config.SetLogger(l.With().Str("component", "config").Logger())
	db.SetLogger(l.With().Str("component", "db").Logger())
	repository.SetLogger(l.With().Str("component", "repository").Logger())
	editor.SetLogger(l.With().Str("component", "editor").Logger())
	posts.SetLogger(l.With().Str("component", "posts").Logger())
	stats.SetLogger(l.With().Str("component", "stats").Logger())
	render.SetLogger(l.With().Str("component", "render").Logger())
	sse.SetLogger(l.With().Str("component", "sse").Logger())
	auth.SetLogger(l.With().Str("component", "auth").Logger())
}

func run(ctx context.Context, cfg *config.Config, l zerolog.Logger) error {
	a, err := newApp(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer a.db.Close()

	a.sessions.StartJanitor(ctx, janitorInterval)
	go a.postRepo.Watch(ctx, watchInterval)

	srv := &http.Server{
		Addr:        cfg.Server.Addr(),
		Handler:     a.handler,
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info().Str("addr", srv.Addr).Msg("Starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	l.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newApp(ctx context.Context, cfg *config.Config, l zerolog.Logger) (*app, error) {
	database, err := db.New(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, err
	}
	if err := database.InitDB(); err != nil {
		return nil, fmt.Errorf(config.ErrInitializeDatabaseFmt, err)
	}

	codec, err := compression.New(cfg.Content.Compression)
	if err != nil {
		database.Close()
		return nil, err
	}

	images, uploadsDir, err := newImageStore(ctx, cfg.Storage)
	if err != nil {
		database.Close()
		return nil, err
	}

	provider, err := newAuthProvider(cfg.Auth, repository.NewDBUserRepository(database))
	if err != nil {
		database.Close()
		return nil, fmt.Errorf(config.ErrCreateProviderFmt, err)
	}

	events := sse.NewSSEClients()
	postRepo := repository.NewDBPostRepository(database, codec)
	statsService := stats.NewService(repository.NewDBStatsRepository(database), cfg.Dashboard.TopPosts, cfg.Dashboard.CacheTTL)

	postRepo.SetReloadNotifier(func() {
		statsService.Invalidate()
		events.Publish(sse.TopicPosts, sse.EventPostsChanged, nil)
	})

	compressor := imaging.NewCompressor(cfg.Editor.ImageTargetBytes, cfg.Editor.ImageMaxDimension)
	sessions := editor.NewMemoryRepository(cfg.Editor.SessionIdleTTL)

	handler := routes.New(routes.Deps{
		Logger:        l,
		Auth:          provider,
		Editor:        editor.NewHandler(sessions, postRepo, images, compressor, events, int64(cfg.Editor.MaxUploadBytes)),
		Posts:         posts.NewHandler(posts.NewController(postRepo, images, events)),
		Stats:         stats.NewHandler(statsService),
		Events:        events,
		UploadsDir:    uploadsDir,
		LoginPath:     cfg.Auth.LoginPath,
		DashboardPath: cfg.Auth.DashboardPath,
		Timeout:       cfg.Server.WriteTimeout,
		Health: func(ctx context.Context) error {
			return database.Get().PingContext(ctx)
		},
	})

	return &app{
		db:       database,
		handler:  handler,
		events:   events,
		postRepo: postRepo,
		sessions: sessions,
	}, nil
}

// newImageStore returns the configured store and, for the local backend,
// the directory to serve under /uploads/.
func newImageStore(ctx context.Context, sc config.StorageConfig) (repository.ImageStore, string, error) {
	switch sc.Backend {
	case "s3":
		store, err := repository.NewS3ImageStore(ctx, repository.S3Options{
			Bucket:          sc.Bucket,
			Endpoint:        sc.S3.Endpoint,
			Region:          sc.S3.Region,
			AccessKeyID:     sc.S3.AccessKeyID,
			SecretAccessKey: sc.S3.SecretAccessKey,
			UsePathStyle:    sc.S3.UsePathStyle,
			PublicBaseURL:   sc.PublicBaseURL,
		})
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	default:
		baseURL := sc.PublicBaseURL
		if baseURL == "" {
			baseURL = strings.TrimSuffix(config.UploadsURLPath, "/")
		}
		store := repository.NewFSImageStore(sc.LocalDir, baseURL)
		return store, store.Dir(), nil
	}
}

func newAuthProvider(ac config.AuthConfig, users repository.UserRepository) (auth.AuthProvider, error) {
	switch ac.Type {
	case "clerk":
		if ac.ClerkSecretKey == "" {
			return nil, errors.New("clerk_secret_key is required")
		}
		return auth.NewClerkAuthProvider(ac.ClerkSecretKey), nil
	default:
		return auth.NewPasswordAuthProvider(users, auth.PasswordOptions{
			Secret:        ac.JWTSecret,
			SessionTTL:    ac.SessionTTL,
			RefreshWindow: ac.RefreshWindow,
			SecureCookies: ac.SecureCookies,
			DashboardPath: ac.DashboardPath,
		})
	}
}
