package util

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/gomarkdown/markdown"
	"gopkg.in/yaml.v3"
)

var ErrNoFrontMatter = errors.New("no front matter")

var frontMatterDelimiter = []byte("---")

type FrontMatter struct {
	Title       string    `yaml:"title"`
	Slug        string    `yaml:"slug"`
	Description string    `yaml:"description"`
	YoutubeURL  string    `yaml:"youtube_url"`
	Image       string    `yaml:"image"`
	Tags        []string  `yaml:"tags"`
	Date        time.Time `yaml:"date"`
}

// GetFrontMatter splits a markdown document into its YAML front matter and
// the body that follows it. Documents without a leading --- block return
// ErrNoFrontMatter and the whole input as body.
func GetFrontMatter(md []byte) (*FrontMatter, []byte, error) {
	md = markdown.NormalizeNewlines(md)
	trimmed := bytes.TrimLeft(md, "\n \t")

	if !bytes.HasPrefix(trimmed, frontMatterDelimiter) {
		return nil, md, ErrNoFrontMatter
	}

	rest := trimmed[len(frontMatterDelimiter):]
	end := bytes.Index(rest, append([]byte("\n"), frontMatterDelimiter...))
	if end == -1 {
		return nil, md, ErrNoFrontMatter
	}

	fm := &FrontMatter{}
	if err := yaml.Unmarshal(rest[:end], fm); err != nil {
		return nil, md, fmt.Errorf("invalid front matter: %w", err)
	}

	body := rest[end+1+len(frontMatterDelimiter):]
	return fm, bytes.TrimLeft(body, "\n"), nil
}
