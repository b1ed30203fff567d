// Package editor implements the post editing workflow: draft state, tag and
// slug rules, background image compression and the upload-then-persist submit.
package editor

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/amercogo/MojKutakAdmin/internal/apperror"
	"github.com/amercogo/MojKutakAdmin/internal/imaging"
	"github.com/amercogo/MojKutakAdmin/internal/model"
	"github.com/rs/zerolog"
)

var editorLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	editorLogger = l
}

type PostWriter interface {
	InsertPost(ctx context.Context, fields model.PostFields) (*model.Post, error)
	UpdatePost(ctx context.Context, id model.PostID, fields model.PostFields) (*model.Post, error)
}

type ImageUploader interface {
	UploadImage(ctx context.Context, objectName string, data []byte) error
	PublicURL(objectName string) string
}

type ImageCompressor interface {
	Compress(data []byte) (*imaging.Result, error)
}

// Workflow owns one Draft for the duration of an editing session.
// All methods are safe for concurrent use.
type Workflow struct {
	posts      PostWriter
	images     ImageUploader
	compressor ImageCompressor
	now        func() time.Time
	previewURL func(generation uint64) string

	mu          sync.Mutex
	draft       Draft
	generation  uint64
	compressing bool
	submitting  bool
	notice      *Notice

	successListeners []func(model.Post)
	noticeListeners  []func(Notice)

	compressions sync.WaitGroup
}

type Option func(*Workflow)

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// WithPreviewURL sets how local previews are addressed. The generation
// changes with every image selection.
func WithPreviewURL(fn func(generation uint64) string) Option {
	return func(w *Workflow) { w.previewURL = fn }
}

// NewWorkflow returns a workflow holding an empty draft. A nil compressor
// keeps selected images as they are.
func NewWorkflow(posts PostWriter, images ImageUploader, compressor ImageCompressor, opts ...Option) *Workflow {
	w := &Workflow{
		posts:      posts,
		images:     images,
		compressor: compressor,
		now:        time.Now,
		previewURL: func(generation uint64) string {
			return fmt.Sprintf("local-preview:%d", generation)
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.resetLocked()
	return w
}

// OnSuccess registers fn to be called with every saved post.
func (w *Workflow) OnSuccess(fn func(model.Post)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.successListeners = append(w.successListeners, fn)
}

// OnNotice registers fn to be called with background notices.
func (w *Workflow) OnNotice(fn func(Notice)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.noticeListeners = append(w.noticeListeners, fn)
}

// resetLocked empties the draft and invalidates in-flight compressions.
func (w *Workflow) resetLocked() {
	w.generation++
	w.draft = Draft{Tags: []string{}}
	w.compressing = false
	w.notice = nil
}

// Initialize seeds the draft from existing, or empties it when existing is nil.
func (w *Workflow) Initialize(existing *model.Post) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.resetLocked()
	if existing == nil {
		return
	}

	id := existing.ID
	w.draft.PostID = &id
	w.draft.Title = existing.Title
	w.draft.Slug = existing.Slug
	w.draft.Content = existing.Content
	w.draft.Description = existing.Description
	w.draft.YoutubeURL = existing.YoutubeURL
	w.draft.Tags = slices.Clone(existing.Tags)
	if w.draft.Tags == nil {
		w.draft.Tags = []string{}
	}

	if existing.HasImage() {
		url := *existing.ImageURL
		w.draft.remoteImage = &url
		w.draft.preview = &preview{url: url}
	}
}

// Close discards the draft. A compression still running is ignored when it ends.
func (w *Workflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
}

// SetTitle stores the title. A draft for a new post also re-derives its slug;
// an existing post keeps the slug it was published under.
func (w *Workflow) SetTitle(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.draft.Title = text
	if w.draft.PostID == nil {
		w.draft.Slug = Slugify(text)
	}
}

func (w *Workflow) SetSlug(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Slug = text
}

func (w *Workflow) SetContent(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Content = text
}

func (w *Workflow) SetDescription(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Description = text
}

func (w *Workflow) SetYoutubeURL(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.YoutubeURL = text
}

func (w *Workflow) SetTagInput(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.TagInput = text
}

// AddTag appends the trimmed text and clears the tag input. Blank text is
// ignored. The limit is checked before duplicates.
func (w *Workflow) AddTag(text string) error {
	tag := strings.TrimSpace(text)
	if tag == "" {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.draft.Tags) >= MaxTags {
		return apperror.Validation("tags", "tag limit reached")
	}
	if slices.Contains(w.draft.Tags, tag) {
		return apperror.Validation("tags", "duplicate tag")
	}

	w.draft.Tags = append(w.draft.Tags, tag)
	w.draft.TagInput = ""
	return nil
}

// RemoveTag removes the first exact match of text.
func (w *Workflow) RemoveTag(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if i := slices.Index(w.draft.Tags, text); i >= 0 {
		w.draft.Tags = slices.Delete(w.draft.Tags, i, i+1)
	}
}

// SelectImage makes data the pending image and points the preview at it
// straight away. Compression runs in the background and replaces the pending
// payload when it succeeds; on failure the pending payload is dropped, the
// preview is kept and an error notice is emitted.
func (w *Workflow) SelectImage(name string, data []byte) error {
	mt, err := imaging.Detect(data)
	if err != nil {
		return apperror.Validation("image", "uploaded file is not an image")
	}

	img := &PendingImage{Name: name, Data: data, ContentType: mt.String()}

	w.mu.Lock()
	w.generation++
	gen := w.generation
	w.draft.pending = img
	w.draft.preview = &preview{url: w.previewURL(gen), local: true, image: img}
	w.notice = nil

	if w.compressor == nil {
		w.mu.Unlock()
		return nil
	}

	w.compressing = true
	w.compressions.Add(1)
	w.mu.Unlock()

	go w.compress(gen, img)
	return nil
}

func (w *Workflow) compress(gen uint64, img *PendingImage) {
	defer w.compressions.Done()

	res, err := w.compressor.Compress(img.Data)

	w.mu.Lock()
	if gen != w.generation {
		w.mu.Unlock()
		editorLogger.Debug().Uint64("generation", gen).Msg("Discarding stale compression result")
		return
	}

	w.compressing = false
	var n Notice
	if err != nil {
		w.draft.pending = nil
		cerr := &apperror.CompressionError{Err: err}
		n = Notice{Level: NoticeError, Message: cerr.Error()}
		editorLogger.Warn().Err(err).Str("file", img.Name).Msg("Image compression failed")
	} else {
		name := img.Name
		if res.ContentType != img.ContentType {
			name = strings.TrimSuffix(name, filepath.Ext(name)) + "." + res.Ext
		}
		w.draft.pending = &PendingImage{Name: name, Data: res.Data, ContentType: res.ContentType}
		n = Notice{
			Level:   NoticeSuccess,
			Message: fmt.Sprintf("Image compressed: %dKB (was %.2fMB)", len(res.Data)/1024, float64(len(img.Data))/1024/1024),
		}
	}
	w.notice = &n
	listeners := slices.Clone(w.noticeListeners)
	w.mu.Unlock()

	for _, fn := range listeners {
		fn(n)
	}
}

// Wait blocks until background compressions have finished.
func (w *Workflow) Wait() {
	w.compressions.Wait()
}

// RemoveImage clears the pending image and the preview. Stored objects are
// left alone.
func (w *Workflow) RemoveImage() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.generation++
	w.draft.pending = nil
	w.draft.preview = nil
	w.draft.remoteImage = nil
	w.compressing = false
}

// PreviewImage returns the bytes behind a local preview.
func (w *Workflow) PreviewImage() (*PendingImage, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.draft.preview == nil || !w.draft.preview.local {
		return nil, false
	}
	return w.draft.preview.image, true
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	d := w.draft.clone()
	s := State{
		PostID:       d.PostID,
		Title:        d.Title,
		Slug:         d.Slug,
		Content:      d.Content,
		Description:  d.Description,
		YoutubeURL:   d.YoutubeURL,
		Tags:         d.Tags,
		TagInput:     d.TagInput,
		ImagePending: d.pending != nil,
		Compressing:  w.compressing,
		Submitting:   w.submitting,
		Notice:       w.notice,
	}
	if d.preview != nil {
		url := d.preview.url
		s.PreviewURL = &url
		s.PreviewLocal = d.preview.local
	}
	return s
}

// Submit validates the draft, uploads a pending image, then inserts or
// updates the post. The upload always finishes before the write starts.
// On failure the draft is left as it was; an uploaded object is not removed.
// On success listeners get the saved post and the draft is reset.
func (w *Workflow) Submit(ctx context.Context) (*model.Post, error) {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return nil, apperror.ErrSubmitInProgress
	}

	snapshot := w.draft.clone()
	snapshot.Title = strings.TrimSpace(snapshot.Title)
	snapshot.Slug = strings.TrimSpace(snapshot.Slug)
	if snapshot.Title == "" || snapshot.Slug == "" {
		w.mu.Unlock()
		return nil, apperror.Validation("", "title and slug required")
	}

	w.submitting = true
	w.mu.Unlock()

	saved, err := w.save(ctx, snapshot)

	w.mu.Lock()
	w.submitting = false
	if err != nil {
		w.mu.Unlock()
		return nil, err
	}
	w.resetLocked()
	listeners := slices.Clone(w.successListeners)
	w.mu.Unlock()

	for _, fn := range listeners {
		fn(*saved)
	}
	return saved, nil
}

func (w *Workflow) save(ctx context.Context, d Draft) (*model.Post, error) {
	imageURL, err := w.resolveImage(ctx, d)
	if err != nil {
		return nil, err
	}

	fields := d.fields(imageURL)

	if d.PostID != nil {
		saved, err := w.posts.UpdatePost(ctx, *d.PostID, fields)
		if err != nil {
			return nil, &apperror.PersistenceError{Op: "update post", Err: err}
		}
		editorLogger.Info().Str("post_id", string(saved.ID)).Msg("Post updated")
		return saved, nil
	}

	saved, err := w.posts.InsertPost(ctx, fields)
	if err != nil {
		return nil, &apperror.PersistenceError{Op: "insert post", Err: err}
	}
	editorLogger.Info().Str("post_id", string(saved.ID)).Str("slug", saved.Slug).Msg("Post created")
	return saved, nil
}

// resolveImage returns the image URL to store. A local preview is never
// stored: without a pending upload it falls back to the image the draft was
// seeded with.
func (w *Workflow) resolveImage(ctx context.Context, d Draft) (*string, error) {
	if d.pending != nil {
		name := w.objectName(d.Slug, d.pending)
		if err := w.images.UploadImage(ctx, name, d.pending.Data); err != nil {
			return nil, &apperror.StorageError{Op: "upload", Err: err}
		}
		url := w.images.PublicURL(name)
		return &url, nil
	}

	if d.preview == nil {
		return nil, nil
	}
	if !d.preview.local {
		url := d.preview.url
		return &url, nil
	}
	if d.remoteImage != nil {
		url := *d.remoteImage
		return &url, nil
	}
	return nil, nil
}

// objectName is "<unix millis>-<slug>.<ext>", ext taken from the file name.
// Both parts are reduced to slug characters so the name is one flat key.
func (w *Workflow) objectName(slug string, img *PendingImage) string {
	base := Slugify(slug)
	if base == "" {
		base = "image"
	}
	ext := Slugify(strings.TrimPrefix(filepath.Ext(img.Name), "."))
	if ext == "" {
		ext = Slugify(strings.TrimPrefix(img.ContentType, "image/"))
	}
	return fmt.Sprintf("%d-%s.%s", w.now().UnixMilli(), base, ext)
}
