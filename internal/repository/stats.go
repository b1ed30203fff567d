package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/amercogo/MojKutakAdmin/internal/apperror"
	"github.com/amercogo/MojKutakAdmin/internal/db"
	"github.com/amercogo/MojKutakAdmin/internal/model"
)

type DBStatsRepository struct { // implements StatsRepository
	db db.DB
}

var _ StatsRepository = (*DBStatsRepository)(nil)

func NewDBStatsRepository(d db.DB) *DBStatsRepository {
	return &DBStatsRepository{db: d}
}

const totalsQuery = `
	SELECT COALESCE(SUM(total_views), 0), COALESCE(SUM(total_likes), 0), COUNT(*)
	FROM post_stats`

// Totals sums the counters over post_stats. The post count is its row count.
func (r *DBStatsRepository) Totals(ctx context.Context) (views, likes, posts int64, err error) {
	err = r.db.QueryRow(ctx, totalsQuery).Scan(&views, &likes, &posts)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("error reading totals: %w", err)
	}
	return views, likes, posts, nil
}

const topPostsQuery = `
	SELECT s.post_id, p.title, p.slug, p.created_at, s.total_views
	FROM post_stats s
	JOIN posts p ON p.id = s.post_id
	ORDER BY s.total_views DESC, p.created_at DESC
	LIMIT ?`

func (r *DBStatsRepository) TopPosts(ctx context.Context, limit int) ([]model.TopPost, error) {
	rows, err := r.db.Query(ctx, topPostsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying top posts: %w", err)
	}
	defer rows.Close()

	top := make([]model.TopPost, 0, limit)
	for rows.Next() {
		var tp model.TopPost
		var id string
		if err := rows.Scan(&id, &tp.Title, &tp.Slug, &tp.CreatedAt, &tp.TotalViews); err != nil {
			return nil, fmt.Errorf("error scanning top post: %w", err)
		}
		tp.PostID = model.PostID(id)
		tp.CreatedAt = tp.CreatedAt.UTC()
		top = append(top, tp)
	}
	return top, rows.Err()
}

// viewsPerDayQueries group views by their UTC calendar day, as YYYY-MM-DD.
var viewsPerDayQueries = map[string]string{
	db.DriverSQLite: `
	SELECT date(viewed_at) AS day, COUNT(*)
	FROM post_views
	WHERE viewed_at >= ?
	GROUP BY day`,
	db.DriverPostgres: `
	SELECT to_char(viewed_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*)
	FROM post_views
	WHERE viewed_at >= ?
	GROUP BY day`,
}

const dayFormat = "2006-01-02"

func (r *DBStatsRepository) ViewsPerDay(ctx context.Context, since time.Time) (map[time.Time]int64, error) {
	rows, err := r.db.Query(ctx, viewsPerDayQueries[r.db.Driver()], since.UTC())
	if err != nil {
		return nil, fmt.Errorf("error querying views: %w", err)
	}
	defer rows.Close()

	counts := make(map[time.Time]int64)
	for rows.Next() {
		var day string
		var n int64
		if err := rows.Scan(&day, &n); err != nil {
			return nil, fmt.Errorf("error scanning views: %w", err)
		}
		t, err := time.ParseInLocation(dayFormat, day, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("error parsing view day %q: %w", day, err)
		}
		counts[t] += n
	}
	return counts, rows.Err()
}

func (r *DBStatsRepository) postIDForSlug(ctx context.Context, slug string) (string, error) {
	var id string
	err := r.db.QueryRow(ctx, `SELECT id FROM posts WHERE slug = ?`, slug).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("post %s: %w", slug, apperror.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("error resolving slug: %w", err)
	}
	return id, nil
}

// RecordView bumps the view counter and logs the view for the daily series.
func (r *DBStatsRepository) RecordView(ctx context.Context, slug string, at time.Time) error {
	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		id, err := r.postIDForSlug(txCtx, slug)
		if err != nil {
			return err
		}
		if _, err := r.db.Exec(txCtx, `UPDATE post_stats SET total_views = total_views + 1 WHERE post_id = ?`, id); err != nil {
			return fmt.Errorf("error updating views: %w", err)
		}
		if _, err := r.db.Exec(txCtx, `INSERT INTO post_views (post_id, viewed_at) VALUES (?, ?)`, id, at.UTC()); err != nil {
			return fmt.Errorf("error recording view: %w", err)
		}
		return nil
	})
}

func (r *DBStatsRepository) RecordLike(ctx context.Context, slug string) error {
	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		id, err := r.postIDForSlug(txCtx, slug)
		if err != nil {
			return err
		}
		if _, err := r.db.Exec(txCtx, `UPDATE post_stats SET total_likes = total_likes + 1 WHERE post_id = ?`, id); err != nil {
			return fmt.Errorf("error updating likes: %w", err)
		}
		return nil
	})
}
