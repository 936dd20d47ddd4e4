package validate

import (
	"testing"

	"vaultkit/pkg/models"
)

func TestResolverResolve(t *testing.T) {
	notes := []models.Note{
		{Path: "notes/Weekly Review.md", Aliases: []string{"WR"}},
		{Path: "projects/roadmap.md"},
	}
	canvases := []models.CanvasInfo{{Path: "boards/plan.canvas"}}
	attachments := []string{"assets/diagram.png"}

	r := NewResolver(notes, canvases, attachments)

	tests := []struct {
		name    string
		target  string
		isEmbed bool
		want    bool
	}{
		{"bare basename", "Weekly Review", false, true},
		{"case insensitive", "weekly review", false, true},
		{"full path", "notes/Weekly Review", false, true},
		{"full path with extension", "projects/roadmap.md", false, true},
		{"alias", "WR", false, true},
		{"canvas link", "boards/plan.canvas", false, true},
		{"canvas basename", "plan.canvas", false, true},
		{"unknown note", "ghost", false, false},
		{"attachment as plain link", "diagram.png", false, false},
		{"attachment embed", "diagram.png", true, true},
		{"attachment embed full path", "assets/diagram.png", true, true},
		{"note embed without extension", "roadmap", true, true},
		{"unknown embed", "missing.png", true, false},
		{"empty target resolves to self", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(tt.target, tt.isEmbed); got != tt.want {
				t.Errorf("Resolve(%q, embed=%v) = %v; want %v", tt.target, tt.isEmbed, got, tt.want)
			}
		})
	}
}
