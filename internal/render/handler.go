package render

import (
	"net/http"

	"github.com/amercogo/MojKutakAdmin/internal/config"
	"github.com/amercogo/MojKutakAdmin/internal/util"
)

type previewRequest struct {
	Content string `json:"content"`
	Style   string `json:"style"`
}

type previewResponse struct {
	HTML        string `json:"html"`
	ContentHash string `json:"content_hash"`
}

// HandlePreview renders the posted markdown: POST {"content", "style"}.
func HandlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := util.DecodeJSON(r, &req); err != nil {
		util.WriteError(w, r, err)
		return
	}
	if req.Style == "" {
		req.Style = DefaultStyle
	}

	hash := util.ContentHashString(req.Content)
	html := RenderMarkdownCached([]byte(req.Content), hash, req.Style)
	util.WriteJSON(w, http.StatusOK, previewResponse{HTML: string(html), ContentHash: hash})
}

// HandleSyntaxCSS serves the highlight stylesheet for ?style=.
func HandleSyntaxCSS(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("style")
	if name == "" {
		name = DefaultStyle
	}
	w.Header().Set(config.HCType, "text/css; charset=utf-8")
	w.Header().Set(config.HCacheControl, "public, max-age=86400")
	_, _ = w.Write([]byte(SyntaxCSS(name)))
}
