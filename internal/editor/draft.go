package editor

import (
	"slices"

	"github.com/amercogo/MojKutakAdmin/internal/model"
)

const MaxTags = 5

// Draft is the editable copy of a post held by one editing session.
type Draft struct {
	// PostID is nil for a post that has not been saved yet.
	PostID *model.PostID

	Title       string
	Slug        string
	Content     string
	Description string
	YoutubeURL  string
	Tags        []string
	TagInput    string

	preview *preview
	pending *PendingImage

	// remoteImage is the stored image the draft was seeded with.
	remoteImage *string
}

// PendingImage is an image selected in the editor and not yet uploaded.
type PendingImage struct {
	Name        string
	Data        []byte
	ContentType string
}

type preview struct {
	url   string
	local bool
	image *PendingImage
}

func (d Draft) clone() Draft {
	c := d
	c.Tags = slices.Clone(d.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c
}

func (d Draft) fields(imageURL *string) model.PostFields {
	return model.PostFields{
		Title:       d.Title,
		Slug:        d.Slug,
		Content:     d.Content,
		Description: d.Description,
		YoutubeURL:  d.YoutubeURL,
		ImageURL:    imageURL,
		Tags:        slices.Clone(d.Tags),
	}
}

const (
	NoticeSuccess = "success"
	NoticeError   = "error"
)

// Notice is a one-line message for the editing user, such as the outcome of
// a background image compression.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// State is a read-only snapshot of a session.
type State struct {
	PostID      *model.PostID `json:"post_id"`
	Title       string        `json:"title"`
	Slug        string        `json:"slug"`
	Content     string        `json:"content"`
	Description string        `json:"description"`
	YoutubeURL  string        `json:"youtube_url"`
	Tags        []string      `json:"tags"`
	TagInput    string        `json:"tag_input"`

	PreviewURL   *string `json:"preview_url"`
	PreviewLocal bool    `json:"preview_local"`
	ImagePending bool    `json:"image_pending"`
	Compressing  bool    `json:"compressing"`
	Submitting   bool    `json:"submitting"`

	Notice *Notice `json:"notice,omitempty"`
}
