package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vaultkit/internal/config"
	"vaultkit/internal/db"
	"vaultkit/internal/logger"
	"vaultkit/pkg/models"
)

func testArchiver(t *testing.T) (*Archiver, *db.DB, string) {
	t.Helper()

	root := t.TempDir()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	vault := &models.Vault{Name: "test-vault", RootPath: root, ArchiveFolder: "archive"}
	cfg := config.Archive{
		Workers:   2,
		OlderThan: 90 * 24 * time.Hour,
		Statuses:  []string{"archived", "done"},
	}
	archiver := New(database, vault, cfg, logger.Nop())
	archiver.now = func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }
	return archiver, database, root
}

func seedNote(t *testing.T, database *db.DB, root string, note models.Note) {
	t.Helper()
	absPath := filepath.Join(root, filepath.FromSlash(note.Path))
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(absPath, []byte("# "+note.Path+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := database.SaveNotesBatch("test-vault", []models.Note{note}); err != nil {
		t.Fatal(err)
	}
}

func TestPlan(t *testing.T) {
	archiver, database, root := testArchiver(t)
	now := archiver.now()

	seedNote(t, database, root, models.Note{
		Path: "fresh.md", State: models.NoteStateIndexed, ModTime: now.Add(-24 * time.Hour),
	})
	seedNote(t, database, root, models.Note{
		Path: "stale.md", State: models.NoteStateIndexed, ModTime: now.Add(-200 * 24 * time.Hour),
	})
	seedNote(t, database, root, models.Note{
		Path: "done.md", State: models.NoteStateIndexed, Status: "Done", ModTime: now,
	})
	seedNote(t, database, root, models.Note{
		Path: "already.md", State: models.NoteStateArchived, ModTime: now.Add(-400 * 24 * time.Hour),
	})

	candidates, err := archiver.Plan(0)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	got := map[string]bool{}
	for _, cand := range candidates {
		got[cand.Note.Path] = true
	}
	if len(candidates) != 2 || !got["stale.md"] || !got["done.md"] {
		t.Errorf("candidates = %v; want stale.md and done.md", got)
	}
}

func TestPlanCustomCutoff(t *testing.T) {
	archiver, database, root := testArchiver(t)
	now := archiver.now()

	seedNote(t, database, root, models.Note{
		Path: "recent.md", State: models.NoteStateIndexed, ModTime: now.Add(-48 * time.Hour),
	})

	candidates, err := archiver.Plan(24 * time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 {
		t.Errorf("candidates = %v; want recent.md under a 24h cutoff", candidates)
	}
}

func TestPlanRequiresArchiveFolder(t *testing.T) {
	archiver, _, _ := testArchiver(t)
	archiver.vault.ArchiveFolder = ""

	if _, err := archiver.Plan(0); err == nil {
		t.Error("expected an error without an archive folder")
	}
}

func TestExecuteMovesNotes(t *testing.T) {
	archiver, database, root := testArchiver(t)
	now := archiver.now()

	seedNote(t, database, root, models.Note{
		Path: "sub/stale.md", State: models.NoteStateIndexed, ModTime: now.Add(-200 * 24 * time.Hour),
	})

	candidates, err := archiver.Plan(0)
	if err != nil {
		t.Fatal(err)
	}
	result, err := archiver.Execute(context.Background(), candidates)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if result.Moved != 1 || result.Failed != 0 {
		t.Errorf("result = %+v; want one move", result)
	}

	movedRel := "archive/2026/sub/stale.md"
	if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(movedRel))); err != nil {
		t.Errorf("moved file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "sub", "stale.md")); !os.IsNotExist(err) {
		t.Error("source file still present after archive")
	}

	note, err := database.GetNote("test-vault", movedRel)
	if err != nil {
		t.Fatalf("index row not moved: %v", err)
	}
	if note.State != models.NoteStateArchived {
		t.Errorf("state = %q; want archived", note.State)
	}
}

func TestExecuteSkipsVanishedNote(t *testing.T) {
	archiver, database, root := testArchiver(t)
	now := archiver.now()

	seedNote(t, database, root, models.Note{
		Path: "gone.md", State: models.NoteStateIndexed, ModTime: now.Add(-200 * 24 * time.Hour),
	})
	candidates, err := archiver.Plan(0)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(root, "gone.md")); err != nil {
		t.Fatal(err)
	}

	result, err := archiver.Execute(context.Background(), candidates)
	if err != nil {
		t.Fatal(err)
	}
	if result.Skipped != 1 || result.Moved != 0 {
		t.Errorf("result = %+v; want one skip", result)
	}
}

func TestAvoidCollision(t *testing.T) {
	dir := t.TempDir()

	abs := filepath.Join(dir, "note.md")
	gotAbs, gotRel := avoidCollision(abs, "archive/2026/note.md")
	if gotAbs != abs || gotRel != "archive/2026/note.md" {
		t.Errorf("free destination renamed: %q, %q", gotAbs, gotRel)
	}

	if err := os.WriteFile(abs, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	gotAbs, gotRel = avoidCollision(abs, "archive/2026/note.md")
	if gotAbs != filepath.Join(dir, "note (1).md") || gotRel != "archive/2026/note (1).md" {
		t.Errorf("first collision = %q, %q; want ' (1)' suffix", gotAbs, gotRel)
	}

	if err := os.WriteFile(filepath.Join(dir, "note (1).md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	gotAbs, gotRel = avoidCollision(abs, "archive/2026/note.md")
	if gotAbs != filepath.Join(dir, "note (2).md") || gotRel != "archive/2026/note (2).md" {
		t.Errorf("second collision = %q, %q; want ' (2)' suffix", gotAbs, gotRel)
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"spaces to plus", "Weekly Review.md", "Weekly+Review.md"},
		{"ampersand", "notes/this & that.md", "notes/this+and+that.md"},
		{"backslashes", `notes\sub\note.md`, "notes/sub/note.md"},
		{"doubled separators", "notes//sub///note.md", "notes/sub/note.md"},
		{"clean path untouched", "notes/plain.md", "notes/plain.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeKey(tt.path); got != tt.want {
				t.Errorf("sanitizeKey(%q) = %q; want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestContentType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"note.md", "text/markdown"},
		{"board.canvas", "application/json"},
		{"data.json", "application/json"},
		{"pic.png", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := contentType(tt.path); got != tt.want {
			t.Errorf("contentType(%q) = %q; want %q", tt.path, got, tt.want)
		}
	}
}

func TestNewUploaderRequiresDestination(t *testing.T) {
	archiver, database, _ := testArchiver(t)

	if _, err := NewUploader(database, archiver.vault, 4, logger.Nop()); err == nil {
		t.Error("expected an error for a vault without a destination")
	}
}
