// Package canvas parses Obsidian .canvas files (the JSON Canvas format) and
// scores their health: connectivity between nodes, integrity of edge and
// file references, and presence of content.
package canvas

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Node is a single canvas node. Type-specific fields (Text, File, URL,
// Label) are populated depending on Type.
type Node struct {
	ID     string  `json:"id"`
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Text   string  `json:"text,omitempty"`
	File   string  `json:"file,omitempty"`
	URL    string  `json:"url,omitempty"`
	Label  string  `json:"label,omitempty"`
}

// Edge connects two nodes.
type Edge struct {
	ID       string `json:"id"`
	FromNode string `json:"fromNode"`
	FromSide string `json:"fromSide,omitempty"`
	ToNode   string `json:"toNode"`
	ToSide   string `json:"toSide,omitempty"`
	Label    string `json:"label,omitempty"`
}

// Canvas is a parsed .canvas file.
type Canvas struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Parse validates the raw canvas JSON against the format schema and
// unmarshals it.
func Parse(data []byte) (*Canvas, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var c Canvas
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse canvas: %w", err)
	}
	return &c, nil
}

// Health scoring weights. Connectivity and reference integrity dominate;
// content completeness is a smaller signal.
const (
	connectivityWeight = 0.4
	integrityWeight    = 0.4
	contentWeight      = 0.2
)

// Analyze scores a canvas from 0 to 100 and reports its problems.
// fileExists resolves a vault-relative file reference; it may be nil when no
// index is available, in which case file targets are not checked.
func Analyze(c *Canvas, fileExists func(string) bool) (int, []string) {
	var problems []string

	if len(c.Nodes) == 0 {
		return 0, []string{"canvas has no nodes"}
	}

	connected := make(map[string]bool, len(c.Nodes))
	nodeIDs := make(map[string]bool, len(c.Nodes))
	for _, n := range c.Nodes {
		nodeIDs[n.ID] = true
	}

	// Integrity: every edge endpoint must exist, file nodes must resolve.
	refs := 0
	badRefs := 0
	for _, e := range c.Edges {
		for _, end := range []string{e.FromNode, e.ToNode} {
			refs++
			if !nodeIDs[end] {
				badRefs++
				problems = append(problems, fmt.Sprintf("edge %s references missing node %s", e.ID, end))
			} else {
				connected[end] = true
			}
		}
	}
	for _, n := range c.Nodes {
		if n.Type != "file" {
			continue
		}
		refs++
		if n.File == "" {
			badRefs++
			problems = append(problems, fmt.Sprintf("file node %s has no file reference", n.ID))
		} else if fileExists != nil && !fileExists(n.File) {
			badRefs++
			problems = append(problems, fmt.Sprintf("file node %s references missing file %s", n.ID, n.File))
		}
	}
	integrity := 1.0
	if refs > 0 {
		integrity = float64(refs-badRefs) / float64(refs)
	}

	// Connectivity: fraction of nodes touched by at least one edge. Group
	// nodes are containers and not expected to be wired.
	wireable := 0
	wired := 0
	for _, n := range c.Nodes {
		if n.Type == "group" {
			continue
		}
		wireable++
		if connected[n.ID] {
			wired++
		}
	}
	connectivity := 1.0
	if wireable > 0 {
		connectivity = float64(wired) / float64(wireable)
		if orphans := wireable - wired; orphans > 0 {
			problems = append(problems, fmt.Sprintf("%d orphan node(s) with no edges", orphans))
		}
	}

	// Content: text nodes carry text, groups carry labels.
	checked := 0
	filled := 0
	for _, n := range c.Nodes {
		switch n.Type {
		case "text":
			checked++
			if strings.TrimSpace(n.Text) != "" {
				filled++
			} else {
				problems = append(problems, fmt.Sprintf("text node %s is empty", n.ID))
			}
		case "group":
			checked++
			if strings.TrimSpace(n.Label) != "" {
				filled++
			} else {
				problems = append(problems, fmt.Sprintf("group node %s has no label", n.ID))
			}
		}
	}
	content := 1.0
	if checked > 0 {
		content = float64(filled) / float64(checked)
	}

	score := connectivity*connectivityWeight + integrity*integrityWeight + content*contentWeight
	return int(score*100 + 0.5), problems
}
