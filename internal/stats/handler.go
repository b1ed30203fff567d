package stats

import (
	"net/http"
	"strconv"

	"github.com/amercogo/MojKutakAdmin/internal/apperror"
	"github.com/amercogo/MojKutakAdmin/internal/util"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// DashboardRoutes mounts under /api/dashboard.
func (h *Handler) DashboardRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Summary)
	r.Get("/views", h.ViewsByDay)
	return r
}

// IngestRoutes mounts under /public/posts. These routes are not gated.
func (h *Handler) IngestRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/{slug}/view", h.RecordView)
	r.Post("/{slug}/like", h.RecordLike)
	return r
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		util.WriteError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) ViewsByDay(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			util.WriteError(w, r, apperror.Validation("days", "days must be 7 or 30"))
			return
		}
		days = n
	}

	series, err := h.service.ViewsByDay(r.Context(), days)
	if err != nil {
		util.WriteError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, series)
}

func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RecordView(r.Context(), chi.URLParam(r, "slug")); err != nil {
		util.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RecordLike(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RecordLike(r.Context(), chi.URLParam(r, "slug")); err != nil {
		util.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
