package cache

var syntaxCache = NewCache[string, string]()

// GetSyntaxCSS returns the stylesheet generated for a highlight style.
func GetSyntaxCSS(style string) (string, bool) {
	return syntaxCache.Get(style)
}

func SetSyntaxCSS(style string, css string) {
	syntaxCache.Set(style, css)
}
