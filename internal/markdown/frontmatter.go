package markdown

import (
	"bytes"
	"fmt"

	"github.com/adrg/frontmatter"
)

// FrontMatter is the typed envelope for the YAML block vault notes open
// with. Keys outside the envelope are collected into Custom.
type FrontMatter struct {
	Title   string         `yaml:"title"`
	ID      string         `yaml:"id"`
	Tags    []string       `yaml:"tags"`
	Aliases []string       `yaml:"aliases"`
	Status  string         `yaml:"status"`
	Created string         `yaml:"created"`
	Updated string         `yaml:"updated"`
	Custom  map[string]any `yaml:",inline"`
}

// HasFrontmatter reports whether the source opens with a YAML delimiter.
// The adrg parser returns the source unchanged when no block is present, so
// presence has to be checked separately.
func HasFrontmatter(source []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(source, "\xef\xbb\xbf"), []byte("---"))
}

// ParseFrontMatter extracts the YAML frontmatter and the markdown body from
// the provided source bytes. It returns the structured frontmatter, the body
// without delimiters, and any error encountered.
func ParseFrontMatter(source []byte) (FrontMatter, []byte, error) {
	var meta FrontMatter

	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	if meta.Custom == nil {
		meta.Custom = map[string]any{}
	}
	return meta, body, nil
}
