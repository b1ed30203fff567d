package model

import "time"

type PostStats struct {
	PostID     PostID `json:"post_id"`
	TotalViews int64  `json:"total_views"`
	TotalLikes int64  `json:"total_likes"`
}

type TopPost struct {
	PostID     PostID    `json:"post_id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	CreatedAt  time.Time `json:"created_at"`
	TotalViews int64     `json:"total_views"`
}

type DashboardSummary struct {
	TotalViews int64     `json:"total_views"`
	TotalLikes int64     `json:"total_likes"`
	TotalPosts int64     `json:"total_posts"`
	TopPosts   []TopPost `json:"top_posts"`
}

// DayViews is one UTC day of the views-by-day series.
type DayViews struct {
	Date      time.Time `json:"date"`
	ViewCount int64     `json:"view_count"`
	Label     string    `json:"label"`
}
