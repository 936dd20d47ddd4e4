package template

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vaultkit/internal/db"
	"vaultkit/internal/logger"
	"vaultkit/pkg/models"
)

func testEngine(t *testing.T) (*Engine, *db.DB, string) {
	t.Helper()

	root := t.TempDir()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	vault := &models.Vault{Name: "test-vault", RootPath: root}
	engine := NewEngine(database, vault, logger.Nop())
	engine.now = func() time.Time { return time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC) }
	engine.newID = func() string { return "fixed-id" }
	return engine, database, root
}

func TestSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Weekly Review", "weekly-review"},
		{"Q1 2026: Goals & Plans", "q1-2026-goals-plans"},
		{"  spaced  out  ", "spaced-out"},
		{"日本語", "untitled"},
		{"", "untitled"},
	}

	for _, tt := range tests {
		if got := Slug(tt.title); got != tt.want {
			t.Errorf("Slug(%q) = %q; want %q", tt.title, got, tt.want)
		}
	}
}

func TestNewNoteFromBuiltin(t *testing.T) {
	engine, database, root := testEngine(t)

	relPath, err := engine.New("zettel", "Test Note", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if relPath != "test-note.md" {
		t.Errorf("path = %q; want %q", relPath, "test-note.md")
	}

	data, err := os.ReadFile(filepath.Join(root, relPath))
	if err != nil {
		t.Fatalf("note was not written: %v", err)
	}
	content := string(data)
	for _, want := range []string{"title: Test Note", "id: fixed-id", "created: 2026-01-05", "# Test Note"} {
		if !strings.Contains(content, want) {
			t.Errorf("rendered note missing %q:\n%s", want, content)
		}
	}

	metrics, err := database.GetTemplateMetrics("test-vault")
	if err != nil {
		t.Fatalf("failed to load metrics: %v", err)
	}
	if len(metrics) != 1 || metrics[0].Name != "zettel" || metrics[0].Uses != 1 {
		t.Errorf("metrics = %v; want one zettel use", metrics)
	}
}

func TestNewNoteRefusesOverwrite(t *testing.T) {
	engine, _, _ := testEngine(t)

	if _, err := engine.New("zettel", "Same Title", nil, ""); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := engine.New("zettel", "Same Title", nil, ""); err == nil {
		t.Error("expected second create to refuse overwriting")
	}
}

func TestNewNoteWithVarsAndOutDir(t *testing.T) {
	engine, _, root := testEngine(t)

	relPath, err := engine.New("book", "Effective Notes", map[string]string{"author": "A. Writer"}, "library")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if relPath != "library/effective-notes.md" {
		t.Errorf("path = %q; want %q", relPath, "library/effective-notes.md")
	}

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(relPath)))
	if err != nil {
		t.Fatalf("note was not written: %v", err)
	}
	if !strings.Contains(string(data), `author: "A. Writer"`) {
		t.Errorf("rendered note missing author var:\n%s", data)
	}
}

func TestNewNoteUnknownTemplate(t *testing.T) {
	engine, _, _ := testEngine(t)

	if _, err := engine.New("no-such-template", "Title", nil, ""); err == nil {
		t.Error("expected unknown template error")
	}
}

func TestUserTemplateOverridesBuiltin(t *testing.T) {
	engine, _, root := testEngine(t)

	dir := filepath.Join(root, "templates")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	custom := "---\ntitle: {{.Title}}\n---\ncustom body for {{.Vault}}\n"
	if err := os.WriteFile(filepath.Join(dir, "zettel.md"), []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	relPath, err := engine.New("zettel", "Override Check", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, relPath))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "custom body for test-vault") {
		t.Errorf("expected the user template to win:\n%s", data)
	}

	infos, err := engine.List()
	if err != nil {
		t.Fatal(err)
	}
	for _, info := range infos {
		if info.Name == "zettel" && info.Source == "built-in" {
			t.Error("zettel should be listed as a user template")
		}
	}
}

func TestListIncludesBuiltins(t *testing.T) {
	engine, _, _ := testEngine(t)

	infos, err := engine.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := map[string]bool{}
	for _, info := range infos {
		found[info.Name] = true
	}
	for _, name := range []string{"zettel", "daily", "meeting", "book", "project"} {
		if !found[name] {
			t.Errorf("built-in template %q missing from list", name)
		}
	}
}
