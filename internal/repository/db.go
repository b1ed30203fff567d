package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amercogo/MojKutakAdmin/internal/apperror"
	"github.com/amercogo/MojKutakAdmin/internal/db"
	"github.com/amercogo/MojKutakAdmin/internal/model"
	"github.com/amercogo/MojKutakAdmin/internal/util"
	"github.com/amercogo/MojKutakAdmin/internal/util/compression"
	"github.com/google/uuid"
)

type DBPostRepository struct { // implements PostRepository
	db         db.DB
	compressor compression.Compressor
	now        func() time.Time

	reloadNotifier func()
	fingerprint    string
}

var _ PostRepository = (*DBPostRepository)(nil)

func NewDBPostRepository(d db.DB, compressor compression.Compressor) *DBPostRepository {
	if compressor == nil {
		compressor = compression.ZstdCompressor{}
	}
	return &DBPostRepository{
		db:         d,
		compressor: compressor,
		now:        time.Now,
	}
}

type postRow struct {
	ID          string
	Title       string
	Slug        string
	Content     []byte
	ContentHash string
	Description sql.NullString
	YoutubeURL  sql.NullString
	ImageURL    sql.NullString
	Tags        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (pr *postRow) scanTargets() []any {
	return []any{
		&pr.ID, &pr.Title, &pr.Slug, &pr.Content, &pr.ContentHash,
		&pr.Description, &pr.YoutubeURL, &pr.ImageURL, &pr.Tags,
		&pr.CreatedAt, &pr.UpdatedAt,
	}
}

func (r *DBPostRepository) toDomain(pr *postRow) (*model.Post, error) {
	content, err := r.compressor.Decompress(pr.Content)
	if err != nil {
		return nil, fmt.Errorf("error decompressing content of post %s: %w", pr.ID, err)
	}

	tags := []string{}
	if pr.Tags != "" {
		if err := json.Unmarshal([]byte(pr.Tags), &tags); err != nil {
			return nil, fmt.Errorf("error decoding tags of post %s: %w", pr.ID, err)
		}
	}

	post := &model.Post{
		ID:          model.PostID(pr.ID),
		Title:       pr.Title,
		Slug:        pr.Slug,
		Content:     string(content),
		ContentHash: pr.ContentHash,
		Description: pr.Description.String,
		YoutubeURL:  pr.YoutubeURL.String,
		Tags:        tags,
		CreatedAt:   pr.CreatedAt.UTC(),
		UpdatedAt:   pr.UpdatedAt.UTC(),
	}
	if pr.ImageURL.Valid && pr.ImageURL.String != "" {
		post.ImageURL = &pr.ImageURL.String
	}
	return post, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// encodeFields prepares the column values shared by insert and update.
func (r *DBPostRepository) encodeFields(fields model.PostFields) (content []byte, hash, tags string, err error) {
	content, err = r.compressor.Compress([]byte(fields.Content))
	if err != nil {
		return nil, "", "", fmt.Errorf("error compressing content: %w", err)
	}

	t := fields.Tags
	if t == nil {
		t = []string{}
	}
	encoded, err := json.Marshal(t)
	if err != nil {
		return nil, "", "", fmt.Errorf("error encoding tags: %w", err)
	}

	return content, util.ContentHashString(fields.Content), string(encoded), nil
}

func imageColumn(url *string) sql.NullString {
	if url == nil {
		return sql.NullString{}
	}
	return nullString(*url)
}

const selectPostColumns = `
	SELECT id, title, slug, content, content_hash, description, youtube_url, image_url, tags, created_at, updated_at
	FROM posts`

const insertPostQuery = `
	INSERT INTO posts (id, title, slug, content, content_hash, description, youtube_url, image_url, tags, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertPostStatsQuery = `INSERT INTO post_stats (post_id, total_views, total_likes) VALUES (?, 0, 0)`

// InsertPost stores a new post and its zeroed stats row in one transaction.
func (r *DBPostRepository) InsertPost(ctx context.Context, fields model.PostFields) (*model.Post, error) {
	content, hash, tags, err := r.encodeFields(fields)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	id := uuid.New().String()

	err = db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		if _, err := r.db.Exec(txCtx, insertPostQuery,
			id, fields.Title, fields.Slug, content, hash,
			nullString(fields.Description), nullString(fields.YoutubeURL), imageColumn(fields.ImageURL),
			tags, now, now,
		); err != nil {
			return err
		}
		_, err := r.db.Exec(txCtx, insertPostStatsQuery, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error inserting post: %w", err)
	}

	repoLogger.Info().Str("post_id", id).Str("slug", fields.Slug).Msg("Post inserted")
	return r.GetPost(ctx, model.PostID(id))
}

const updatePostQuery = `
	UPDATE posts
	SET title = ?, slug = ?, content = ?, content_hash = ?, description = ?, youtube_url = ?, image_url = ?, tags = ?, updated_at = ?
	WHERE id = ?`

func (r *DBPostRepository) UpdatePost(ctx context.Context, id model.PostID, fields model.PostFields) (*model.Post, error) {
	content, hash, tags, err := r.encodeFields(fields)
	if err != nil {
		return nil, err
	}

	res, err := r.db.Exec(ctx, updatePostQuery,
		fields.Title, fields.Slug, content, hash,
		nullString(fields.Description), nullString(fields.YoutubeURL), imageColumn(fields.ImageURL),
		tags, r.now().UTC(), string(id),
	)
	if err != nil {
		return nil, fmt.Errorf("error updating post: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("post %s: %w", id, apperror.ErrNotFound)
	}

	repoLogger.Info().Str("post_id", string(id)).Msg("Post updated")
	return r.GetPost(ctx, id)
}

// DeletePost removes the post with its stats and view rows.
func (r *DBPostRepository) DeletePost(ctx context.Context, id model.PostID) error {
	var deleted int64
	err := db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		if _, err := r.db.Exec(txCtx, `DELETE FROM post_views WHERE post_id = ?`, string(id)); err != nil {
			return err
		}
		if _, err := r.db.Exec(txCtx, `DELETE FROM post_stats WHERE post_id = ?`, string(id)); err != nil {
			return err
		}
		res, err := r.db.Exec(txCtx, `DELETE FROM posts WHERE id = ?`, string(id))
		if err != nil {
			return err
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("error deleting post: %w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("post %s: %w", id, apperror.ErrNotFound)
	}

	repoLogger.Info().Str("post_id", string(id)).Msg("Post deleted")
	return nil
}

func (r *DBPostRepository) ListPosts(ctx context.Context, minCreatedAt *time.Time) ([]model.Post, error) {
	query := selectPostColumns
	var args []any
	if minCreatedAt != nil {
		query += ` WHERE created_at >= ?`
		args = append(args, minCreatedAt.UTC())
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0)
	for rows.Next() {
		var row postRow
		if err := rows.Scan(row.scanTargets()...); err != nil {
			return nil, fmt.Errorf("error scanning post: %w", err)
		}
		post, err := r.toDomain(&row)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	return posts, nil
}

func (r *DBPostRepository) GetPost(ctx context.Context, id model.PostID) (*model.Post, error) {
	return r.getOne(ctx, selectPostColumns+` WHERE id = ?`, string(id))
}

func (r *DBPostRepository) GetPostBySlug(ctx context.Context, slug string) (*model.Post, error) {
	return r.getOne(ctx, selectPostColumns+` WHERE slug = ?`, slug)
}

func (r *DBPostRepository) getOne(ctx context.Context, query string, arg string) (*model.Post, error) {
	var row postRow
	err := r.db.QueryRow(ctx, query, arg).Scan(row.scanTargets()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %s: %w", arg, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting post: %w", err)
	}
	return r.toDomain(&row)
}

// SetReloadNotifier sets a function called when Watch sees the posts table change.
func (r *DBPostRepository) SetReloadNotifier(notifier func()) {
	r.reloadNotifier = notifier
}

// Fingerprint summarizes the posts table; it changes on every insert,
// update and delete.
func (r *DBPostRepository) Fingerprint(ctx context.Context) (string, error) {
	var count int64
	var latest sql.NullString
	err := r.db.QueryRow(ctx, `SELECT COUNT(*), MAX(updated_at) FROM posts`).Scan(&count, &latest)
	if err != nil {
		return "", fmt.Errorf("error reading posts fingerprint: %w", err)
	}
	return fmt.Sprintf("%d:%s", count, latest.String), nil
}

// Watch polls the posts table until ctx is done and calls the reload notifier
// when it changed, which picks up edits made outside this process.
func (r *DBPostRepository) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		r.checkForChanges(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *DBPostRepository) checkForChanges(ctx context.Context) {
	fp, err := r.Fingerprint(ctx)
	if err != nil {
		repoLogger.Error().Err(err).Msg("Error checking posts for changes")
		return
	}

	if r.fingerprint == "" {
		r.fingerprint = fp
		return
	}
	if fp == r.fingerprint {
		repoLogger.Debug().Msg("No posts modified, skipping reload")
		return
	}

	repoLogger.Info().Msg("Posts have changed")
	r.fingerprint = fp
	if r.reloadNotifier != nil {
		r.reloadNotifier()
	}
}
