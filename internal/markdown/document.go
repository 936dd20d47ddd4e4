// Package markdown parses vault notes: YAML frontmatter, document structure
// via the goldmark AST, and Obsidian wiki links.
//
// Wiki links ([[target|alias]], ![[embed]]) are an Obsidian extension that
// goldmark does not know about, so they are extracted with a regular
// expression over the body while headings, tasks, and standard links come
// from the AST.
package markdown

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"

	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Heading is a single markdown heading.
type Heading struct {
	Level int
	Text  string
}

// WikiLink is one [[...]] reference found in a note body.
type WikiLink struct {
	Target  string
	Alias   string
	IsEmbed bool
}

// Document is the parsed form of a single note.
type Document struct {
	FrontMatter    FrontMatter
	HasFrontmatter bool
	// FrontmatterErr is non-nil when a frontmatter block is present but
	// does not parse. The body then falls back to the full source so the
	// note stays indexable.
	FrontmatterErr error

	Body          []byte
	H1            string
	Headings      []Heading
	// HeadingJumps counts hierarchy skips: a heading more than one level
	// deeper than the one before it.
	HeadingJumps  int
	WikiLinks     []WikiLink
	ExternalLinks int
	TaskCount     int
	DoneTaskCount int
	WordCount     int
}

var wikiLinkRe = regexp.MustCompile(`(!)?\[\[([^\[\]]+)\]\]`)

// engine is stateless and safe for concurrent use, so a single instance is
// shared across all parses.
var engine = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.TaskList),
)

// ParseDocument parses a complete note source into a Document. It never
// fails outright: malformed frontmatter is recorded on the document and the
// body is analyzed regardless.
func ParseDocument(source []byte) *Document {
	doc := &Document{Body: source}

	if HasFrontmatter(source) {
		doc.HasFrontmatter = true
		meta, body, err := ParseFrontMatter(source)
		if err != nil {
			doc.FrontmatterErr = err
		} else {
			doc.FrontMatter = meta
			doc.Body = body
		}
	}

	doc.analyze()
	doc.WikiLinks = ExtractWikiLinks(doc.Body)
	doc.WordCount = len(strings.Fields(string(doc.Body)))
	return doc
}

// analyze walks the goldmark AST collecting headings, tasks, and standard
// link counts.
func (d *Document) analyze() {
	root := engine.Parser().Parse(text.NewReader(d.Body))

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			h := Heading{Level: node.Level, Text: nodeText(node, d.Body)}
			if prev := len(d.Headings); prev > 0 && node.Level > d.Headings[prev-1].Level+1 {
				d.HeadingJumps++
			}
			d.Headings = append(d.Headings, h)
			if node.Level == 1 && d.H1 == "" {
				d.H1 = h.Text
			}
		case *east.TaskCheckBox:
			d.TaskCount++
			if node.IsChecked {
				d.DoneTaskCount++
			}
		case *ast.Link, *ast.AutoLink:
			d.ExternalLinks++
		}
		return ast.WalkContinue, nil
	})
}

// ExtractWikiLinks returns every wiki link in the body, in order of
// appearance. Heading (#) and block (^) fragments are stripped from targets;
// a link whose target is empty after stripping points at the note itself and
// is dropped.
func ExtractWikiLinks(body []byte) []WikiLink {
	matches := wikiLinkRe.FindAllSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}

	links := make([]WikiLink, 0, len(matches))
	for _, m := range matches {
		inner := string(m[2])

		var alias string
		if i := strings.Index(inner, "|"); i >= 0 {
			alias = strings.TrimSpace(inner[i+1:])
			inner = inner[:i]
		}
		if i := strings.IndexAny(inner, "#^"); i >= 0 {
			inner = inner[:i]
		}
		target := strings.TrimSpace(inner)
		if target == "" {
			continue
		}

		links = append(links, WikiLink{
			Target:  target,
			Alias:   alias,
			IsEmbed: len(m[1]) > 0,
		})
	}
	return links
}

func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := c.(*ast.Text); ok {
				sb.Write(t.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
