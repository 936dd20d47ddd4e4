package validate

import (
	"path"
	"strings"

	"vaultkit/pkg/models"
)

// Resolver answers whether a wiki link target resolves inside the vault. It
// mirrors Obsidian's behavior: targets match by full vault path or by bare
// file name, case-insensitively, with the .md extension optional for notes.
// Embeds may additionally target canvases and attachments.
type Resolver struct {
	notePaths  map[string]bool // lowercased, without .md
	filePaths  map[string]bool // lowercased, any indexed file
	noteBases  map[string]bool
	fileBases  map[string]bool
	noteTitles map[string]bool
}

// NewResolver builds a resolver over the indexed files of a vault.
func NewResolver(notes []models.Note, canvases []models.CanvasInfo, attachments []string) *Resolver {
	r := &Resolver{
		notePaths:  map[string]bool{},
		filePaths:  map[string]bool{},
		noteBases:  map[string]bool{},
		fileBases:  map[string]bool{},
		noteTitles: map[string]bool{},
	}

	for _, note := range notes {
		p := strings.ToLower(note.Path)
		r.notePaths[strings.TrimSuffix(p, ".md")] = true
		r.filePaths[p] = true

		base := strings.TrimSuffix(path.Base(p), ".md")
		r.noteBases[base] = true
		r.fileBases[path.Base(p)] = true

		// Aliases resolve like names in Obsidian.
		for _, alias := range note.Aliases {
			r.noteTitles[strings.ToLower(strings.TrimSpace(alias))] = true
		}
	}
	for _, c := range canvases {
		p := strings.ToLower(c.Path)
		r.filePaths[p] = true
		r.fileBases[path.Base(p)] = true
	}
	for _, a := range attachments {
		p := strings.ToLower(a)
		r.filePaths[p] = true
		r.fileBases[path.Base(p)] = true
	}
	return r
}

// Resolve reports whether target points at an indexed file. Non-embed links
// resolve against notes (and note aliases); embeds resolve against every
// indexed file.
func (r *Resolver) Resolve(target string, isEmbed bool) bool {
	t := strings.ToLower(strings.TrimSpace(target))
	if t == "" {
		return true
	}

	if !isEmbed {
		if r.notePaths[strings.TrimSuffix(t, ".md")] {
			return true
		}
		if r.noteBases[strings.TrimSuffix(path.Base(t), ".md")] {
			return true
		}
		if r.noteTitles[t] {
			return true
		}
		// Obsidian also links to canvases without embedding.
		if strings.HasSuffix(t, ".canvas") && (r.filePaths[t] || r.fileBases[path.Base(t)]) {
			return true
		}
		return false
	}

	if r.filePaths[t] || r.fileBases[path.Base(t)] {
		return true
	}
	// Markdown embeds may omit the extension like regular links do.
	return r.notePaths[strings.TrimSuffix(t, ".md")] || r.noteBases[strings.TrimSuffix(path.Base(t), ".md")]
}
