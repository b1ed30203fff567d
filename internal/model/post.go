// Package model defines the core data structures shared by the admin service.
package model

import (
	"time"
)

type PostID string

type Post struct {
	ID PostID `json:"id"`

	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Content     string  `json:"content"`
	Description string  `json:"description,omitempty"`
	YoutubeURL  string  `json:"youtube_url,omitempty"`
	ImageURL    *string `json:"image_url"`

	// Ordered, at most five, no exact duplicates.
	Tags []string `json:"tags"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Hash of the uncompressed content, used for cache busting.
	ContentHash string `json:"-"`
}

// PostFields is the writable subset of a Post. The gateway assigns the id
// and timestamps.
type PostFields struct {
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	YoutubeURL  string   `json:"youtube_url,omitempty"`
	ImageURL    *string  `json:"image_url"`
	Tags        []string `json:"tags"`
}

func (p *Post) Fields() PostFields {
	return PostFields{
		Title:       p.Title,
		Slug:        p.Slug,
		Content:     p.Content,
		Description: p.Description,
		YoutubeURL:  p.YoutubeURL,
		ImageURL:    p.ImageURL,
		Tags:        append([]string(nil), p.Tags...),
	}
}

// HasImage reports whether the post carries a featured image.
func (p *Post) HasImage() bool {
	return p.ImageURL != nil && *p.ImageURL != ""
}

// StringPtr returns nil for the empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
