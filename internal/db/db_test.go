package db

import (
	"path/filepath"
	"testing"
	"time"

	"vaultkit/pkg/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func testNote(path string) models.Note {
	return models.Note{
		Path:           path,
		Title:          "Test Note",
		FrontTitle:     "Test Note",
		H1:             "Test Note",
		Size:           321,
		ModTime:        time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC),
		Checksum:       "abc123",
		HasFrontmatter: true,
		FrontmatterOK:  true,
		Tags:           []string{"test", "fixture"},
		Status:         "active",
		Created:        "2026-01-05",
		WordCount:      42,
		LinkCount:      2,
		HeadingJumps:   1,
		State:          models.NoteStateIndexed,
	}
}

func TestVaultRoundTrip(t *testing.T) {
	database := testDB(t)

	vault := &models.Vault{Name: "main", RootPath: "/vaults/main", ArchiveFolder: "archive"}
	vault.Destination.Endpoint = "s3.example.com"
	vault.Destination.Bucket = "backup"
	vault.Destination.Folder = "notes/"

	if err := database.CreateVault(vault); err != nil {
		t.Fatalf("failed to create vault: %v", err)
	}

	got, err := database.GetVault("main")
	if err != nil {
		t.Fatalf("failed to get vault: %v", err)
	}
	if got.RootPath != vault.RootPath || got.ArchiveFolder != vault.ArchiveFolder {
		t.Errorf("got %+v; want %+v", got, vault)
	}
	if !got.HasDestination() {
		t.Error("expected destination to survive the round trip")
	}

	if _, err := database.GetVault("missing"); err == nil {
		t.Error("expected an error for an unknown vault")
	}
}

func TestNotesBatchRoundTrip(t *testing.T) {
	database := testDB(t)

	notes := []models.Note{testNote("a.md"), testNote("sub/b.md")}
	if err := database.SaveNotesBatch("v", notes); err != nil {
		t.Fatalf("failed to save notes: %v", err)
	}

	got, err := database.GetNotes("v")
	if err != nil {
		t.Fatalf("failed to load notes: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("notes = %d; want 2", len(got))
	}
	first := got[0]
	if first.Path != "a.md" || first.Checksum != "abc123" || !first.FrontmatterOK {
		t.Errorf("unexpected note: %+v", first)
	}
	if len(first.Tags) != 2 || first.Tags[0] != "test" {
		t.Errorf("tags = %v; want [test fixture]", first.Tags)
	}
	if first.HeadingJumps != 1 {
		t.Errorf("heading jumps = %d; want 1", first.HeadingJumps)
	}
	if !first.ModTime.Equal(notes[0].ModTime) {
		t.Errorf("mod time = %v; want %v", first.ModTime, notes[0].ModTime)
	}

	// Saving again replaces, not duplicates.
	notes[0].WordCount = 99
	if err := database.SaveNotesBatch("v", notes[:1]); err != nil {
		t.Fatalf("failed to re-save note: %v", err)
	}
	got, _ = database.GetNotes("v")
	if len(got) != 2 || got[0].WordCount != 99 {
		t.Errorf("after re-save: %d notes, word count %d; want 2 notes, 99", len(got), got[0].WordCount)
	}

	single, err := database.GetNote("v", "sub/b.md")
	if err != nil {
		t.Fatalf("failed to get single note: %v", err)
	}
	if single.Path != "sub/b.md" {
		t.Errorf("path = %q; want sub/b.md", single.Path)
	}
}

func TestDeleteNotesCascades(t *testing.T) {
	database := testDB(t)

	if err := database.SaveNotesBatch("v", []models.Note{testNote("a.md")}); err != nil {
		t.Fatal(err)
	}
	if err := database.ReplaceLinks("v", map[string][]models.WikiLink{
		"a.md": {{SourcePath: "a.md", Target: "b"}},
	}); err != nil {
		t.Fatal(err)
	}
	if err := database.ReplaceIssues("v", nil, []models.Issue{
		{Path: "a.md", Rule: "empty-note", Severity: models.SeverityWarning, Message: "m"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := database.SaveAssessment("v", models.Assessment{Path: "a.md", Overall: 0.5}); err != nil {
		t.Fatal(err)
	}

	if err := database.DeleteNotesBatch("v", []string{"a.md"}); err != nil {
		t.Fatalf("failed to delete note: %v", err)
	}

	if notes, _ := database.GetNotes("v"); len(notes) != 0 {
		t.Errorf("notes = %v; want none", notes)
	}
	if links, _ := database.GetLinks("v"); len(links) != 0 {
		t.Errorf("links = %v; want none", links)
	}
	if issues, _ := database.GetIssues("v"); len(issues) != 0 {
		t.Errorf("issues = %v; want none", issues)
	}
	if assessments, _ := database.GetAssessments("v"); len(assessments) != 0 {
		t.Errorf("assessments = %v; want none", assessments)
	}
}

func TestUpdateNoteStateBatch(t *testing.T) {
	database := testDB(t)

	if err := database.SaveNotesBatch("v", []models.Note{testNote("a.md"), testNote("b.md")}); err != nil {
		t.Fatal(err)
	}
	if err := database.UpdateNoteStateBatch("v", []string{"a.md"}, models.NoteStateArchived); err != nil {
		t.Fatalf("failed to update state: %v", err)
	}

	a, _ := database.GetNote("v", "a.md")
	b, _ := database.GetNote("v", "b.md")
	if a.State != models.NoteStateArchived {
		t.Errorf("a state = %q; want archived", a.State)
	}
	if b.State != models.NoteStateIndexed {
		t.Errorf("b state = %q; want indexed", b.State)
	}
}

func TestMoveNote(t *testing.T) {
	database := testDB(t)

	if err := database.SaveNotesBatch("v", []models.Note{testNote("old.md")}); err != nil {
		t.Fatal(err)
	}
	if err := database.ReplaceLinks("v", map[string][]models.WikiLink{
		"old.md": {{SourcePath: "old.md", Target: "other"}},
	}); err != nil {
		t.Fatal(err)
	}
	if err := database.ReplaceIssues("v", nil, []models.Issue{
		{Path: "old.md", Rule: "empty-note", Severity: models.SeverityWarning},
	}); err != nil {
		t.Fatal(err)
	}
	if err := database.SaveAssessment("v", models.Assessment{Path: "old.md", Overall: 0.7}); err != nil {
		t.Fatal(err)
	}

	if err := database.MoveNote("v", "old.md", "archive/2026/old.md", models.NoteStateArchived); err != nil {
		t.Fatalf("failed to move note: %v", err)
	}

	moved, err := database.GetNote("v", "archive/2026/old.md")
	if err != nil {
		t.Fatalf("moved note not found: %v", err)
	}
	if moved.State != models.NoteStateArchived {
		t.Errorf("state = %q; want archived", moved.State)
	}

	links, _ := database.GetLinks("v")
	if len(links) != 1 || links[0].SourcePath != "archive/2026/old.md" {
		t.Errorf("links = %v; want one from the new path", links)
	}
	if issues, _ := database.GetIssues("v"); len(issues) != 0 {
		t.Errorf("issues = %v; want cleared on archive", issues)
	}
	assessments, _ := database.GetAssessments("v")
	if len(assessments) != 1 || assessments[0].Path != "archive/2026/old.md" {
		t.Errorf("assessments = %v; want one under the new path", assessments)
	}
}

func TestReplaceIssuesScoped(t *testing.T) {
	database := testDB(t)

	seed := []models.Issue{
		{Path: "a.md", Rule: "empty-note", Severity: models.SeverityWarning},
		{Path: "b.md", Rule: "empty-note", Severity: models.SeverityWarning},
	}
	if err := database.ReplaceIssues("v", nil, seed); err != nil {
		t.Fatal(err)
	}

	// Scoped replace touches only the named paths.
	update := []models.Issue{{Path: "a.md", Rule: "broken-links", Severity: models.SeverityError}}
	if err := database.ReplaceIssues("v", []string{"a.md"}, update); err != nil {
		t.Fatal(err)
	}

	issues, err := database.GetIssues("v")
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 2 {
		t.Fatalf("issues = %v; want 2", issues)
	}
	if issues[0].Path != "a.md" || issues[0].Rule != "broken-links" {
		t.Errorf("a.md issue = %+v; want the replacement", issues[0])
	}
	if issues[1].Path != "b.md" {
		t.Errorf("b.md issue = %+v; want untouched", issues[1])
	}

	// Nil paths clears the vault before inserting.
	if err := database.ReplaceIssues("v", nil, nil); err != nil {
		t.Fatal(err)
	}
	if issues, _ := database.GetIssues("v"); len(issues) != 0 {
		t.Errorf("issues = %v; want none after clear", issues)
	}
}

func TestTemplateMetrics(t *testing.T) {
	database := testDB(t)

	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := database.RecordTemplateUse("v", "zettel", "z.md", base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatal(err)
		}
	}
	if err := database.RecordTemplateUse("v", "daily", "d.md", base); err != nil {
		t.Fatal(err)
	}

	metrics, err := database.GetTemplateMetrics("v")
	if err != nil {
		t.Fatalf("failed to load metrics: %v", err)
	}
	if len(metrics) != 2 {
		t.Fatalf("metrics = %v; want 2", metrics)
	}
	if metrics[0].Name != "zettel" || metrics[0].Uses != 3 {
		t.Errorf("top metric = %+v; want zettel with 3 uses", metrics[0])
	}
	if !metrics[0].LastUsed.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("last used = %v; want %v", metrics[0].LastUsed, base.Add(2*time.Hour))
	}
}

func TestGetStats(t *testing.T) {
	database := testDB(t)

	archived := testNote("archive/2025/x.md")
	archived.State = models.NoteStateArchived
	archived.Size = 100
	if err := database.SaveNotesBatch("v", []models.Note{testNote("a.md"), testNote("b.md"), archived}); err != nil {
		t.Fatal(err)
	}
	if err := database.ReplaceIssues("v", nil, []models.Issue{
		{Path: "a.md", Rule: "broken-links", Severity: models.SeverityError},
		{Path: "a.md", Rule: "empty-note", Severity: models.SeverityWarning},
		{Path: "b.md", Rule: "tag-format", Severity: models.SeverityWarning},
	}); err != nil {
		t.Fatal(err)
	}
	if err := database.SaveAssessment("v", models.Assessment{Path: "a.md", Overall: 0.8}); err != nil {
		t.Fatal(err)
	}
	if err := database.SaveAssessment("v", models.Assessment{Path: "b.md", Overall: 0.4}); err != nil {
		t.Fatal(err)
	}

	stats, err := database.GetStats("v")
	if err != nil {
		t.Fatalf("failed to get stats: %v", err)
	}
	if stats.TotalNotes != 3 {
		t.Errorf("total notes = %d; want 3", stats.TotalNotes)
	}
	if stats.ArchivedNotes != 1 || stats.ArchivedSize != 100 {
		t.Errorf("archived = %d (%d bytes); want 1 (100 bytes)", stats.ArchivedNotes, stats.ArchivedSize)
	}
	if stats.ErrorIssues != 1 || stats.WarningIssues != 2 {
		t.Errorf("issues = %d errors, %d warnings; want 1, 2", stats.ErrorIssues, stats.WarningIssues)
	}
	if stats.AssessedNotes != 2 {
		t.Errorf("assessed = %d; want 2", stats.AssessedNotes)
	}
	if stats.AverageQuality < 0.59 || stats.AverageQuality > 0.61 {
		t.Errorf("average quality = %f; want 0.6", stats.AverageQuality)
	}
}

func TestVaultsAreIsolated(t *testing.T) {
	database := testDB(t)

	if err := database.SaveNotesBatch("v1", []models.Note{testNote("a.md")}); err != nil {
		t.Fatal(err)
	}
	if err := database.SaveNotesBatch("v2", []models.Note{testNote("b.md")}); err != nil {
		t.Fatal(err)
	}

	notes, _ := database.GetNotes("v1")
	if len(notes) != 1 || notes[0].Path != "a.md" {
		t.Errorf("v1 notes = %v; want only a.md", notes)
	}
}
