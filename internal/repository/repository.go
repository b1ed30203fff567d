// Package repository is the gateway to the post database and the image store.
package repository

import (
	"context"
	"time"

	"github.com/amercogo/MojKutakAdmin/internal/model"
	"github.com/rs/zerolog"
)

var repoLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

type PostRepository interface {
	InsertPost(ctx context.Context, fields model.PostFields) (*model.Post, error)
	UpdatePost(ctx context.Context, id model.PostID, fields model.PostFields) (*model.Post, error)
	DeletePost(ctx context.Context, id model.PostID) error

	// ListPosts returns posts created at or after minCreatedAt (all posts
	// when nil), newest first.
	ListPosts(ctx context.Context, minCreatedAt *time.Time) ([]model.Post, error)

	GetPost(ctx context.Context, id model.PostID) (*model.Post, error)
	GetPostBySlug(ctx context.Context, slug string) (*model.Post, error)
}

// ImageStore holds featured images as named objects.
type ImageStore interface {
	UploadImage(ctx context.Context, objectName string, data []byte) error
	PublicURL(objectName string) string
	DeleteImage(ctx context.Context, objectName string) error
}

type StatsRepository interface {
	Totals(ctx context.Context) (views, likes, posts int64, err error)
	TopPosts(ctx context.Context, limit int) ([]model.TopPost, error)

	// ViewsPerDay counts views at or after since, keyed by UTC midnight.
	// Days without views are absent.
	ViewsPerDay(ctx context.Context, since time.Time) (map[time.Time]int64, error)

	RecordView(ctx context.Context, slug string, at time.Time) error
	RecordLike(ctx context.Context, slug string) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
}
