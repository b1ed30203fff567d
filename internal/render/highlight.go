package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/amercogo/MojKutakAdmin/internal/cache"
)

const DefaultStyle = "github"

func formatter() *html.Formatter {
	return html.New(
		html.WithClasses(true),
		html.TabWidth(4),
		html.WithLineNumbers(false),
		html.WrapLongLines(true),
	)
}

func style(name string) *chroma.Style {
	s := styles.Get(name)
	if s == nil {
		return styles.Fallback
	}
	return s
}

// HighlightCode renders code as classed chroma HTML. Unknown languages fall
// back to plain text; on failure the code is returned unchanged.
func HighlightCode(code, language, styleName string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter().Format(&buf, style(styleName), iterator); err != nil {
		return code
	}
	return buf.String()
}

// SyntaxCSS returns the stylesheet for the classes HighlightCode emits.
func SyntaxCSS(styleName string) string {
	if css, ok := cache.GetSyntaxCSS(styleName); ok {
		return css
	}

	var buf strings.Builder
	s := style(styleName)

	bg := s.Get(chroma.Background)
	if !bg.Colour.IsSet() {
		// Styles without a text colour get a dark one on light backgrounds
		luminance := (0.299*float64(bg.Background.Red()) +
			0.587*float64(bg.Background.Green()) +
			0.114*float64(bg.Background.Blue())) / 255
		if luminance > 0.5 {
			buf.WriteString(".chroma { color: #181818; }\n")
		}
	}

	if err := formatter().WriteCSS(&buf, s); err != nil {
		renderLogger.Warn().Err(err).Str("style", styleName).Msg("Failed to write syntax CSS")
		return ""
	}
	css := buf.String()
	cache.SetSyntaxCSS(styleName, css)
	return css
}
