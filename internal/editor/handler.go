package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/amercogo/MojKutakAdmin/internal/apperror"
	"github.com/amercogo/MojKutakAdmin/internal/auth"
	"github.com/amercogo/MojKutakAdmin/internal/config"
	"github.com/amercogo/MojKutakAdmin/internal/model"
	"github.com/amercogo/MojKutakAdmin/internal/sse"
	"github.com/amercogo/MojKutakAdmin/internal/util"
	"github.com/go-chi/chi/v5"
)

// PostStore is what the editor needs from the post repository.
type PostStore interface {
	PostWriter
	GetPost(ctx context.Context, id model.PostID) (*model.Post, error)
}

type EventPublisher interface {
	Publish(topic, event string, data any)
}

// DraftTopic is the event topic carrying notices for one session.
func DraftTopic(id DraftID) string {
	return "draft:" + string(id)
}

type Handler struct {
	sessions       Repository
	posts          PostStore
	images         ImageUploader
	compressor     ImageCompressor
	events         EventPublisher
	maxUploadBytes int64
}

func NewHandler(sessions Repository, posts PostStore, images ImageUploader, compressor ImageCompressor, events EventPublisher, maxUploadBytes int64) *Handler {
	return &Handler{
		sessions:       sessions,
		posts:          posts,
		images:         images,
		compressor:     compressor,
		events:         events,
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes mounts under /api/editor.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateSession)
	r.Route("/{draft}", func(r chi.Router) {
		r.Get("/", h.GetState)
		r.Patch("/", h.UpdateFields)
		r.Delete("/", h.DiscardSession)
		r.Post("/tags", h.AddTag)
		r.Delete("/tags/{tag}", h.RemoveTag)
		r.Post("/image", h.SelectImage)
		r.Get("/image/preview", h.ServePreview)
		r.Delete("/image", h.RemoveImage)
		r.Post("/submit", h.Submit)
	})
	return r
}

type sessionResponse struct {
	DraftID DraftID `json:"draft_id"`
	State   State   `json:"state"`
}

func (h *Handler) newWorkflow(id DraftID) *Workflow {
	w := NewWorkflow(h.posts, h.images, h.compressor, WithPreviewURL(func(gen uint64) string {
		return fmt.Sprintf("%seditor/%s/image/preview?v=%d", config.APIPathPrefix, id, gen)
	}))
	w.OnSuccess(func(p model.Post) {
		h.events.Publish(sse.TopicPosts, sse.EventPostsChanged, map[string]string{"post_id": string(p.ID)})
	})
	w.OnNotice(func(n Notice) {
		h.events.Publish(DraftTopic(id), sse.EventNotice, n)
	})
	return w
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PostID *model.PostID `json:"post_id"`
	}
	if err := util.DecodeJSON(r, &req); err != nil {
		util.WriteError(w, r, err)
		return
	}

	var existing *model.Post
	if req.PostID != nil {
		p, err := h.posts.GetPost(r.Context(), *req.PostID)
		if err != nil {
			util.WriteError(w, r, err)
			return
		}
		existing = p
	}

	owner, _ := auth.UserIDFromContext(r.Context())
	s, err := h.sessions.Create(owner, h.newWorkflow)
	if err != nil {
		util.WriteError(w, r, err)
		return
	}
	s.Workflow.Initialize(existing)

	util.WriteJSON(w, http.StatusCreated, sessionResponse{DraftID: s.ID, State: s.Workflow.State()})
}

// session resolves the draft in the URL. Another user's draft reads as missing.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := DraftID(chi.URLParam(r, "draft"))
	s, err := h.sessions.Get(id)
	if err == nil {
		owner, _ := auth.UserIDFromContext(r.Context())
		if s.Owner != owner {
			err = apperror.ErrNotFound
		}
	}
	if err != nil {
		util.WriteJSON(w, http.StatusNotFound, map[string]string{"error": config.ErrDraftNotFound})
		return nil, false
	}
	return s, true
}

func (h *Handler) writeState(w http.ResponseWriter, s *Session) {
	util.WriteJSON(w, http.StatusOK, sessionResponse{DraftID: s.ID, State: s.Workflow.State()})
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeState(w, s)
}

type fieldsRequest struct {
	Title       *string `json:"title"`
	Slug        *string `json:"slug"`
	Content     *string `json:"content"`
	Description *string `json:"description"`
	YoutubeURL  *string `json:"youtube_url"`
	TagInput    *string `json:"tag_input"`
}

// UpdateFields applies the fields present in the body. The title goes first
// so an explicit slug in the same request wins over the derived one.
func (h *Handler) UpdateFields(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req fieldsRequest
	if err := util.DecodeJSON(r, &req); err != nil {
		util.WriteError(w, r, err)
		return
	}

	wf := s.Workflow
	if req.Title != nil {
		wf.SetTitle(*req.Title)
	}
	if req.Slug != nil {
		wf.SetSlug(*req.Slug)
	}
	if req.Content != nil {
		wf.SetContent(*req.Content)
	}
	if req.Description != nil {
		wf.SetDescription(*req.Description)
	}
	if req.YoutubeURL != nil {
		wf.SetYoutubeURL(*req.YoutubeURL)
	}
	if req.TagInput != nil {
		wf.SetTagInput(*req.TagInput)
	}

	h.writeState(w, s)
}

func (h *Handler) AddTag(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Tag string `json:"tag"`
	}
	if err := util.DecodeJSON(r, &req); err != nil {
		util.WriteError(w, r, err)
		return
	}

	if err := s.Workflow.AddTag(req.Tag); err != nil {
		util.WriteError(w, r, err)
		return
	}
	h.writeState(w, s)
}

func (h *Handler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	tag, err := url.PathUnescape(chi.URLParam(r, "tag"))
	if err != nil {
		util.WriteError(w, r, apperror.Validation("tag", "invalid tag"))
		return
	}
	s.Workflow.RemoveTag(tag)
	h.writeState(w, s)
}

// SelectImage accepts a multipart "image" field. Compression continues after
// the response; its outcome arrives as a notice event.
func (h *Handler) SelectImage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)
	file, header, err := r.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			util.WriteError(w, r, apperror.Validation("image", config.ErrImageTooLarge))
			return
		}
		util.WriteError(w, r, apperror.Validation("image", "missing image file"))
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		util.WriteError(w, r, apperror.Validation("image", config.ErrImageTooLarge))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		util.WriteError(w, r, err)
		return
	}

	if err := s.Workflow.SelectImage(header.Filename, data); err != nil {
		util.WriteError(w, r, apperror.Validation("image", config.ErrNotAnImage))
		return
	}

	util.WriteJSON(w, http.StatusAccepted, sessionResponse{DraftID: s.ID, State: s.Workflow.State()})
}

func (h *Handler) ServePreview(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	img, ok := s.Workflow.PreviewImage()
	if !ok {
		util.WriteJSON(w, http.StatusNotFound, map[string]string{"error": config.HTTPErrNotFound})
		return
	}

	w.Header().Set(config.HCType, img.ContentType)
	w.Header().Set(config.HCacheControl, "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	_, _ = w.Write(img.Data)
}

func (h *Handler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Workflow.RemoveImage()
	h.writeState(w, s)
}

// Submit saves the draft. A successful submit ends the session.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	saved, err := s.Workflow.Submit(r.Context())
	if err != nil {
		util.WriteError(w, r, err)
		return
	}

	_ = h.sessions.Delete(s.ID)
	util.WriteJSON(w, http.StatusOK, saved)
}

func (h *Handler) DiscardSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	_ = h.sessions.Delete(s.ID)
	w.WriteHeader(http.StatusNoContent)
}
