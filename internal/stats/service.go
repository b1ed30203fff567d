// Package stats serves the dashboard numbers and ingests view and like events.
package stats

import (
	"context"
	"time"

	"github.com/amercogo/MojKutakAdmin/internal/apperror"
	"github.com/amercogo/MojKutakAdmin/internal/cache"
	"github.com/amercogo/MojKutakAdmin/internal/model"
	"github.com/amercogo/MojKutakAdmin/internal/repository"
	"github.com/rs/zerolog"
)

var statsLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	statsLogger = l
}

const (
	summaryKey = "summary"
	dayLabel   = "Mon 2"
)

type Service struct {
	repo     repository.StatsRepository
	topPosts int
	summary  *cache.Cache[string, *model.DashboardSummary]
	now      func() time.Time
}

// NewService caches the summary for cacheTTL. Zero keeps it until Invalidate.
func NewService(repo repository.StatsRepository, topPosts int, cacheTTL time.Duration) *Service {
	return &Service{
		repo:     repo,
		topPosts: topPosts,
		summary:  cache.NewTTLCache[string, *model.DashboardSummary](cacheTTL),
		now:      time.Now,
	}
}

// Invalidate drops the cached summary.
func (s *Service) Invalidate() {
	s.summary.Delete(summaryKey)
}

func (s *Service) Summary(ctx context.Context) (*model.DashboardSummary, error) {
	return s.summary.GetOrLoad(summaryKey, func() (*model.DashboardSummary, error) {
		views, likes, posts, err := s.repo.Totals(ctx)
		if err != nil {
			return nil, err
		}
		top, err := s.repo.TopPosts(ctx, s.topPosts)
		if err != nil {
			return nil, err
		}
		statsLogger.Debug().Int64("views", views).Int64("posts", posts).Msg("Dashboard summary refreshed")
		return &model.DashboardSummary{
			TotalViews: views,
			TotalLikes: likes,
			TotalPosts: posts,
			TopPosts:   top,
		}, nil
	})
}

// ViewsByDay returns one entry per UTC day for the last days days, today
// included, oldest first. Days without views count zero.
func (s *Service) ViewsByDay(ctx context.Context, days int) ([]model.DayViews, error) {
	if days != 7 && days != 30 {
		return nil, apperror.Validation("days", "days must be 7 or 30")
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(days - 1))

	counts, err := s.repo.ViewsPerDay(ctx, start)
	if err != nil {
		return nil, err
	}

	series := make([]model.DayViews, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		series = append(series, model.DayViews{
			Date:      day,
			ViewCount: counts[day],
			Label:     day.Format(dayLabel),
		})
	}
	return series, nil
}

func (s *Service) RecordView(ctx context.Context, slug string) error {
	return s.repo.RecordView(ctx, slug, s.now())
}

func (s *Service) RecordLike(ctx context.Context, slug string) error {
	return s.repo.RecordLike(ctx, slug)
}
