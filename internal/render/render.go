// Package render turns post markdown into sanitized HTML for the editor preview.
package render

import (
	"fmt"
	"io"
	"sync"

	"github.com/amercogo/MojKutakAdmin/internal/cache"
	"github.com/amercogo/MojKutakAdmin/internal/util"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

var renderLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	renderLogger = l
}

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// chroma output is styled through classes
	p.AllowAttrs("class").Globally()
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// RenderMarkdown renders md with highlighted code blocks and sanitizes the result.
func RenderMarkdown(md []byte, styleName string) []byte {
	opts := md_html.RendererOptions{
		Flags: md_html.CommonFlags | md_html.HrefTargetBlank | md_html.FootnoteReturnLinks,
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if code, ok := node.(*ast.CodeBlock); ok && entering {
				var lang string
				if info := code.Info; info != nil {
					lang = string(info)
				}
				fmt.Fprintf(w, "<div class=\"highlight\">%s</div>", HighlightCode(string(code.Literal), lang, styleName))
				return ast.GoToNext, true
			}
			return ast.GoToNext, false
		},
	}

	doc := parser.NewWithExtensions(
		parser.Tables | parser.FencedCode | parser.Autolink | parser.Strikethrough | parser.SpaceHeadings |
			parser.HeadingIDs | parser.BackslashLineBreak | parser.DefinitionLists |
			parser.AutoHeadingIDs | parser.Footnotes | parser.NoIntraEmphasis,
	).Parse(markdown.NormalizeNewlines(md))

	return policy.SanitizeBytes(markdown.Render(doc, md_html.NewRenderer(opts)))
}

// Mutex to protect the check-render-set operation in RenderMarkdownCached
var renderCacheMutex sync.Mutex

// RenderMarkdownCached memoizes RenderMarkdown by content hash and style.
// An empty hash is computed from md.
func RenderMarkdownCached(md []byte, contentHash, styleName string) []byte {
	if contentHash == "" {
		contentHash = util.ContentHash(md)
	}

	if cached, found := cache.GetRenderedMarkdown(contentHash, styleName); found {
		renderLogger.Debug().Str("contentHash", contentHash).Str("style", styleName).Msg("Cache hit for rendered markdown")
		return cached.HTML
	}

	renderCacheMutex.Lock()
	defer renderCacheMutex.Unlock()

	if cached, found := cache.GetRenderedMarkdown(contentHash, styleName); found {
		return cached.HTML
	}

	renderLogger.Debug().Str("contentHash", contentHash).Str("style", styleName).Msg("Cache miss for rendered markdown")
	html := RenderMarkdown(md, styleName)
	cache.SetRenderedMarkdown(contentHash, styleName, html)
	return html
}
