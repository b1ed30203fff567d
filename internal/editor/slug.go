package editor

import (
	"regexp"
	"strings"
)

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases title, collapses every run of characters outside
// [a-z0-9] into one hyphen and strips leading and trailing hyphens.
// "Hello World!" becomes "hello-world".
func Slugify(title string) string {
	s := nonSlugRun.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}
