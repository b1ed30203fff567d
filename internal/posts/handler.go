package posts

import (
	"net/http"

	"github.com/amercogo/MojKutakAdmin/internal/model"
	"github.com/amercogo/MojKutakAdmin/internal/util"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	controller *Controller
}

func NewHandler(c *Controller) *Handler {
	return &Handler{controller: c}
}

// Routes mounts under /api/posts.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)
	return r
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.controller.List(r.Context(), Filter(r.URL.Query().Get("filter")))
	if err != nil {
		util.WriteError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, posts)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.controller.Get(r.Context(), model.PostID(chi.URLParam(r, "id")))
	if err != nil {
		util.WriteError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, post)
}

// Delete removes the image recorded on the stored post.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := model.PostID(chi.URLParam(r, "id"))
	post, err := h.controller.Get(r.Context(), id)
	if err != nil {
		util.WriteError(w, r, err)
		return
	}

	if err := h.controller.Delete(r.Context(), id, post.ImageURL); err != nil {
		util.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
