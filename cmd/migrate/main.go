// Command migrate manages the database schema and imports markdown posts.
//
//	migrate [-config config.yaml] up|down|version
//	migrate [-config config.yaml] import -path ./posts
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/amercogo/MojKutakAdmin/internal/apperror"
	"github.com/amercogo/MojKutakAdmin/internal/config"
	"github.com/amercogo/MojKutakAdmin/internal/db"
	"github.com/amercogo/MojKutakAdmin/internal/editor"
	"github.com/amercogo/MojKutakAdmin/internal/logger"
	"github.com/amercogo/MojKutakAdmin/internal/model"
	"github.com/amercogo/MojKutakAdmin/internal/repository"
	"github.com/amercogo/MojKutakAdmin/internal/util"
	"github.com/amercogo/MojKutakAdmin/internal/util/compression"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	l := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	db.SetLogger(l)
	repository.SetLogger(l)

	if flag.NArg() < 1 {
		l.Fatal().Msg("Usage: migrate up|down|version|import")
	}

	switch cmd := flag.Arg(0); cmd {
	case "up", "down", "version":
		err = schema(cmd, cfg.Database, l)
	case "import":
		err = importPosts(cfg, flag.Args()[1:], l)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		l.Fatal().Err(err).Msg("Migration failed")
	}
}

// schema opens a bare connection so that down and version see the database
// as it is, without the automatic upgrade InitDB performs.
func schema(cmd string, dc config.DatabaseConfig, l zerolog.Logger) error {
	conn, err := sql.Open(dc.Driver, dc.DSN)
	if err != nil {
		return err
	}
	defer conn.Close()

	switch cmd {
	case "up":
		return db.MigrateUp(conn, dc.Driver)
	case "down":
		return db.MigrateDown(conn, dc.Driver)
	default:
		version, dirty, err := db.MigrationVersion(conn, dc.Driver)
		if err != nil {
			return err
		}
		l.Info().Uint("version", version).Bool("dirty", dirty).Msg("Schema version")
		return nil
	}
}

func importPosts(cfg *config.Config, args []string, l zerolog.Logger) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	path := fs.String("path", "", "Directory containing .md files")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errors.New("-path is required")
	}

	database, err := db.New(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		return err
	}
	if err := database.InitDB(); err != nil {
		return fmt.Errorf(config.ErrInitializeDatabaseFmt, err)
	}
	defer database.Close()

	codec, err := compression.New(cfg.Content.Compression)
	if err != nil {
		return err
	}
	repo := repository.NewDBPostRepository(database, codec)

	files, err := os.ReadDir(*path)
	if err != nil {
		return fmt.Errorf("error reading directory %s: %w", *path, err)
	}

	ctx := context.Background()
	imported := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
			continue
		}
		err := importFile(ctx, repo, filepath.Join(*path, file.Name()))
		switch {
		case errors.Is(err, errAlreadyImported):
			l.Info().Str("file", file.Name()).Msg("Skipping existing post")
		case err != nil:
			l.Error().Err(err).Str("file", file.Name()).Msg("Error importing post")
		default:
			imported++
			l.Info().Str("file", file.Name()).Msg("Imported post")
		}
	}

	l.Info().Int("count", imported).Msg("Import complete")
	return nil
}

var errAlreadyImported = errors.New("post already exists")

func importFile(ctx context.Context, repo repository.PostRepository, filePath string) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	fm, body, err := util.GetFrontMatter(content)
	if err != nil && !errors.Is(err, util.ErrNoFrontMatter) {
		return err
	}
	if fm == nil {
		fm = &util.FrontMatter{}
	}

	title := fm.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(filePath), ".md")
	}
	slug := fm.Slug
	if slug == "" {
		slug = editor.Slugify(title)
	}

	if _, err := repo.GetPostBySlug(ctx, slug); err == nil {
		return errAlreadyImported
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return err
	}

	tags := fm.Tags
	if len(tags) > editor.MaxTags {
		tags = tags[:editor.MaxTags]
	}

	_, err = repo.InsertPost(ctx, model.PostFields{
		Title:       title,
		Slug:        slug,
		Content:     string(body),
		Description: fm.Description,
		YoutubeURL:  fm.YoutubeURL,
		ImageURL:    model.StringPtr(fm.Image),
		Tags:        tags,
	})
	return err
}
