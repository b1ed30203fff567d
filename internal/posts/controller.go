// Package posts lists and deletes published posts for the admin post table.
package posts

import (
	"context"
	"net/url"
	"path"
	"time"

	"github.com/amercogo/MojKutakAdmin/internal/apperror"
	"github.com/amercogo/MojKutakAdmin/internal/model"
	"github.com/amercogo/MojKutakAdmin/internal/repository"
	"github.com/amercogo/MojKutakAdmin/internal/sse"
	"github.com/rs/zerolog"
)

var postsLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	postsLogger = l
}

type Filter string

const (
	FilterAll        Filter = "all"
	FilterLast7Days  Filter = "last7days"
	FilterLast30Days Filter = "last30days"
)

// Since returns the inclusive lower bound on created_at for f, nil for all.
func (f Filter) Since(now time.Time) (*time.Time, error) {
	var days int
	switch f {
	case FilterAll, "":
		return nil, nil
	case FilterLast7Days:
		days = 7
	case FilterLast30Days:
		days = 30
	default:
		return nil, apperror.Validation("filter", "unknown filter "+string(f))
	}
	t := now.AddDate(0, 0, -days)
	return &t, nil
}

type EventPublisher interface {
	Publish(topic, event string, data any)
}

type Controller struct {
	posts  repository.PostRepository
	images repository.ImageStore
	events EventPublisher
	now    func() time.Time
}

func NewController(posts repository.PostRepository, images repository.ImageStore, events EventPublisher) *Controller {
	return &Controller{posts: posts, images: images, events: events, now: time.Now}
}

// List returns the posts matching filter, newest first.
func (c *Controller) List(ctx context.Context, filter Filter) ([]model.Post, error) {
	since, err := filter.Since(c.now())
	if err != nil {
		return nil, err
	}
	posts, err := c.posts.ListPosts(ctx, since)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return posts, nil
}

func (c *Controller) Get(ctx context.Context, id model.PostID) (*model.Post, error) {
	return c.posts.GetPost(ctx, id)
}

// Delete removes the post's image object (best effort) and then the post.
// Only a failed row delete is reported.
func (c *Controller) Delete(ctx context.Context, id model.PostID, imageURL *string) error {
	if imageURL != nil && *imageURL != "" {
		if name := ObjectName(*imageURL); name != "" {
			if err := c.images.DeleteImage(ctx, name); err != nil {
				postsLogger.Warn().Err(err).Str("post_id", string(id)).Str("object", name).Msg("Failed to delete post image")
			}
		}
	}

	if err := c.posts.DeletePost(ctx, id); err != nil {
		return &apperror.PersistenceError{Op: "delete post", Err: err}
	}

	postsLogger.Info().Str("post_id", string(id)).Msg("Post deleted")
	c.events.Publish(sse.TopicPosts, sse.EventPostsChanged, map[string]string{"post_id": string(id)})
	return nil
}

// ObjectName is the last path segment of an image URL.
func ObjectName(imageURL string) string {
	p := imageURL
	if u, err := url.Parse(imageURL); err == nil {
		p = u.Path
	}
	name := path.Base(p)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
