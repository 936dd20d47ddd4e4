package validate

import (
	"testing"
	"time"

	"vaultkit/internal/config"
	"vaultkit/pkg/models"
)

func testRuleContext(notes []models.Note, links []models.WikiLink) *ruleContext {
	return &ruleContext{
		cfg: config.Validate{
			RequiredKeys: []string{"title", "created", "tags"},
			MinWords:     5,
		},
		now:           time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		linksBySource: groupLinks(links),
		resolver:      NewResolver(notes, nil, nil),
	}
}

func TestCheckRuleNames(t *testing.T) {
	if err := CheckRuleNames(AllRules); err != nil {
		t.Errorf("all known rules rejected: %v", err)
	}
	if err := CheckRuleNames([]string{"tag-format", "no-such-rule"}); err == nil {
		t.Error("expected unknown rule to be rejected")
	}
	if err := CheckRuleNames(nil); err != nil {
		t.Errorf("empty rule list rejected: %v", err)
	}
}

func TestRules(t *testing.T) {
	goodNote := models.Note{
		Path:           "notes/weekly-review.md",
		FrontTitle:     "Weekly Review",
		H1:             "Weekly Review",
		HasFrontmatter: true,
		FrontmatterOK:  true,
		Tags:           []string{"review"},
		Created:        "2026-02-20",
		WordCount:      120,
		State:          models.NoteStateIndexed,
	}

	tests := []struct {
		name         string
		rule         ruleFunc
		mutate       func(n *models.Note)
		wantIssues   int
		wantSeverity string
	}{
		{
			name:       "good note passes frontmatter-required",
			rule:       checkFrontmatterRequired,
			wantIssues: 0,
		},
		{
			name:         "missing frontmatter",
			rule:         checkFrontmatterRequired,
			mutate:       func(n *models.Note) { n.HasFrontmatter = false },
			wantIssues:   1,
			wantSeverity: models.SeverityError,
		},
		{
			name:         "malformed frontmatter",
			rule:         checkFrontmatterParse,
			mutate:       func(n *models.Note) { n.FrontmatterOK = false },
			wantIssues:   1,
			wantSeverity: models.SeverityError,
		},
		{
			name:       "malformed frontmatter suppresses required-keys",
			rule:       checkRequiredKeys,
			mutate:     func(n *models.Note) { n.FrontmatterOK = false; n.FrontTitle = "" },
			wantIssues: 0,
		},
		{
			name:         "missing required keys",
			rule:         checkRequiredKeys,
			mutate:       func(n *models.Note) { n.FrontTitle = ""; n.Tags = nil },
			wantIssues:   2,
			wantSeverity: models.SeverityError,
		},
		{
			name:         "hash-prefixed tag",
			rule:         checkTagFormat,
			mutate:       func(n *models.Note) { n.Tags = []string{"#review"} },
			wantIssues:   1,
			wantSeverity: models.SeverityWarning,
		},
		{
			name:         "uppercase tag",
			rule:         checkTagFormat,
			mutate:       func(n *models.Note) { n.Tags = []string{"Review"} },
			wantIssues:   1,
			wantSeverity: models.SeverityWarning,
		},
		{
			name:       "nested tag is fine",
			rule:       checkTagFormat,
			mutate:     func(n *models.Note) { n.Tags = []string{"area/work", "q1_2026"} },
			wantIssues: 0,
		},
		{
			name:         "unparseable date",
			rule:         checkDateFormat,
			mutate:       func(n *models.Note) { n.Created = "last tuesday" },
			wantIssues:   1,
			wantSeverity: models.SeverityError,
		},
		{
			name:         "title mismatch",
			rule:         checkTitleMismatch,
			mutate:       func(n *models.Note) { n.H1 = "Something Else" },
			wantIssues:   1,
			wantSeverity: models.SeverityWarning,
		},
		{
			name:       "title case difference tolerated",
			rule:       checkTitleMismatch,
			mutate:     func(n *models.Note) { n.H1 = "WEEKLY REVIEW" },
			wantIssues: 0,
		},
		{
			name:         "near-empty note",
			rule:         checkEmptyNote,
			mutate:       func(n *models.Note) { n.WordCount = 2 },
			wantIssues:   1,
			wantSeverity: models.SeverityWarning,
		},
		{
			name:         "illegal filename characters",
			rule:         checkFilename,
			mutate:       func(n *models.Note) { n.Path = "notes/what?.md" },
			wantIssues:   1,
			wantSeverity: models.SeverityWarning,
		},
		{
			name:         "trailing space in filename",
			rule:         checkFilename,
			mutate:       func(n *models.Note) { n.Path = "notes/draft .md" },
			wantIssues:   1,
			wantSeverity: models.SeverityWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note := goodNote
			if tt.mutate != nil {
				tt.mutate(&note)
			}
			rc := testRuleContext([]models.Note{note}, nil)

			issues := tt.rule(rc, &note)
			if len(issues) != tt.wantIssues {
				t.Fatalf("issues = %d (%v); want %d", len(issues), issues, tt.wantIssues)
			}
			for _, is := range issues {
				if is.Severity != tt.wantSeverity {
					t.Errorf("severity = %q; want %q", is.Severity, tt.wantSeverity)
				}
				if is.Path != note.Path {
					t.Errorf("issue path = %q; want %q", is.Path, note.Path)
				}
			}
		})
	}
}

func TestCheckBrokenLinks(t *testing.T) {
	notes := []models.Note{
		{Path: "notes/source.md", State: models.NoteStateIndexed},
		{Path: "notes/target.md", State: models.NoteStateIndexed},
	}
	links := []models.WikiLink{
		{SourcePath: "notes/source.md", Target: "target"},
		{SourcePath: "notes/source.md", Target: "ghost"},
		{SourcePath: "notes/source.md", Target: "missing.png", IsEmbed: true},
	}

	rc := testRuleContext(notes, links)
	issues := checkBrokenLinks(rc, &notes[0])

	if len(issues) != 2 {
		t.Fatalf("issues = %d (%v); want 2", len(issues), issues)
	}
	for _, is := range issues {
		if is.Severity != models.SeverityError {
			t.Errorf("severity = %q; want error", is.Severity)
		}
	}
}

func TestParseNoteDate(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"2026-01-05", true},
		{"2026-01-05T09:30:00Z", true},
		{"2026-01-05 09:30", true},
		{"2026-01-05T09:30", true},
		{"05/01/2026", false},
		{"yesterday", false},
		{"", false},
	}

	for _, tt := range tests {
		if _, ok := ParseNoteDate(tt.value); ok != tt.ok {
			t.Errorf("ParseNoteDate(%q) ok = %v; want %v", tt.value, ok, tt.ok)
		}
	}
}
