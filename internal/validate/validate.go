// Package validate runs rule-based checks over the indexed vault: frontmatter
// presence and shape, tag and date formats, link resolution, and naming
// conventions. Findings are persisted as issues.
package validate

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"vaultkit/internal/config"
	"vaultkit/internal/db"
	"vaultkit/internal/logger"
	"vaultkit/pkg/models"
)

// Rule names, as accepted by --rules.
const (
	RuleFrontmatterRequired = "frontmatter-required"
	RuleFrontmatterParse    = "frontmatter-parse"
	RuleRequiredKeys        = "required-keys"
	RuleTagFormat           = "tag-format"
	RuleDateFormat          = "date-format"
	RuleTitleMismatch       = "title-mismatch"
	RuleBrokenLinks         = "broken-links"
	RuleEmptyNote           = "empty-note"
	RuleFilename            = "filename-convention"
)

// AllRules lists every rule in execution order.
var AllRules = []string{
	RuleFrontmatterRequired,
	RuleFrontmatterParse,
	RuleRequiredKeys,
	RuleTagFormat,
	RuleDateFormat,
	RuleTitleMismatch,
	RuleBrokenLinks,
	RuleEmptyNote,
	RuleFilename,
}

// Summary is the outcome of one validation run.
type Summary struct {
	NotesChecked int
	Issues       []models.Issue
	ByRule       map[string]int
	Errors       int
	Warnings     int
	Infos        int
}

// HasErrors reports whether any error-severity issue was found. Warnings do
// not fail a run.
func (s *Summary) HasErrors() bool {
	return s.Errors > 0
}

// Runner validates one vault.
type Runner struct {
	db    *db.DB
	vault *models.Vault
	cfg   config.Validate
	log   *logger.Logger
	now   func() time.Time
}

// NewRunner creates a validation runner.
func NewRunner(database *db.DB, vault *models.Vault, cfg config.Validate, log *logger.Logger) *Runner {
	return &Runner{
		db:    database,
		vault: vault,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

type ruleContext struct {
	cfg           config.Validate
	now           time.Time
	linksBySource map[string][]models.WikiLink
	resolver      *Resolver
}

type ruleFunc func(rc *ruleContext, note *models.Note) []models.Issue

var ruleRegistry = map[string]ruleFunc{
	RuleFrontmatterRequired: checkFrontmatterRequired,
	RuleFrontmatterParse:    checkFrontmatterParse,
	RuleRequiredKeys:        checkRequiredKeys,
	RuleTagFormat:           checkTagFormat,
	RuleDateFormat:          checkDateFormat,
	RuleTitleMismatch:       checkTitleMismatch,
	RuleBrokenLinks:         checkBrokenLinks,
	RuleEmptyNote:           checkEmptyNote,
	RuleFilename:            checkFilename,
}

// CheckRuleNames validates a requested rule list against the registry.
func CheckRuleNames(rules []string) error {
	known := make([]any, 0, len(AllRules))
	for _, name := range AllRules {
		known = append(known, name)
	}
	return validation.Validate(rules, validation.Each(validation.In(known...)))
}

// Run executes the given rules (all of them when rules is empty) over every
// indexed note and replaces the vault's stored issues with the findings.
func (r *Runner) Run(ctx context.Context, rules []string) (*Summary, error) {
	if len(rules) == 0 {
		rules = AllRules
	}
	if err := CheckRuleNames(rules); err != nil {
		return nil, fmt.Errorf("unknown rule: %w", err)
	}

	notes, err := r.db.GetNotes(r.vault.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load notes: %w", err)
	}
	links, err := r.db.GetLinks(r.vault.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load links: %w", err)
	}
	canvases, err := r.db.GetCanvases(r.vault.Name)
	if err != nil {
		return nil, err
	}
	attachments, err := r.db.GetAttachmentPaths(r.vault.Name)
	if err != nil {
		return nil, err
	}

	rc := &ruleContext{
		cfg:           r.cfg,
		now:           r.now(),
		linksBySource: groupLinks(links),
		resolver:      NewResolver(notes, canvases, attachments),
	}

	summary := &Summary{ByRule: map[string]int{}}
	for i := range notes {
		note := &notes[i]
		if note.State != models.NoteStateIndexed {
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		summary.NotesChecked++

		for _, name := range rules {
			for _, issue := range ruleRegistry[name](rc, note) {
				summary.Issues = append(summary.Issues, issue)
				summary.ByRule[issue.Rule]++
				switch issue.Severity {
				case models.SeverityError:
					summary.Errors++
				case models.SeverityWarning:
					summary.Warnings++
				default:
					summary.Infos++
				}
			}
		}
	}

	if err := r.db.ReplaceIssues(r.vault.Name, nil, summary.Issues); err != nil {
		return nil, fmt.Errorf("failed to store issues: %w", err)
	}

	r.log.Info().
		Int("notes", summary.NotesChecked).
		Int("errors", summary.Errors).
		Int("warnings", summary.Warnings).
		Msg("validation complete")
	return summary, nil
}

func groupLinks(links []models.WikiLink) map[string][]models.WikiLink {
	grouped := make(map[string][]models.WikiLink)
	for _, link := range links {
		grouped[link.SourcePath] = append(grouped[link.SourcePath], link)
	}
	return grouped
}

func issue(note *models.Note, rule, severity, message string) models.Issue {
	return models.Issue{Path: note.Path, Rule: rule, Severity: severity, Message: message}
}

func checkFrontmatterRequired(rc *ruleContext, note *models.Note) []models.Issue {
	if note.HasFrontmatter {
		return nil
	}
	return []models.Issue{issue(note, RuleFrontmatterRequired, models.SeverityError, "note has no frontmatter block")}
}

func checkFrontmatterParse(rc *ruleContext, note *models.Note) []models.Issue {
	if !note.HasFrontmatter || note.FrontmatterOK {
		return nil
	}
	return []models.Issue{issue(note, RuleFrontmatterParse, models.SeverityError, "frontmatter block does not parse as YAML")}
}

func checkRequiredKeys(rc *ruleContext, note *models.Note) []models.Issue {
	if !note.HasFrontmatter || !note.FrontmatterOK {
		return nil
	}

	var issues []models.Issue
	for _, key := range rc.cfg.RequiredKeys {
		missing := false
		switch key {
		case "title":
			missing = note.FrontTitle == ""
		case "created":
			missing = note.Created == ""
		case "updated":
			missing = note.Updated == ""
		case "tags":
			missing = len(note.Tags) == 0
		case "status":
			missing = note.Status == ""
		default:
			// Custom keys are not indexed; nothing to check against.
			continue
		}
		if missing {
			issues = append(issues, issue(note, RuleRequiredKeys, models.SeverityError,
				fmt.Sprintf("missing required frontmatter key %q", key)))
		}
	}
	return issues
}

var tagRe = regexp.MustCompile(`^[a-z0-9][a-z0-9/_-]*$`)

func checkTagFormat(rc *ruleContext, note *models.Note) []models.Issue {
	var issues []models.Issue
	for _, tag := range note.Tags {
		switch {
		case strings.HasPrefix(tag, "#"):
			issues = append(issues, issue(note, RuleTagFormat, models.SeverityWarning,
				fmt.Sprintf("tag %q should not carry a leading '#' in frontmatter", tag)))
		case !tagRe.MatchString(tag):
			issues = append(issues, issue(note, RuleTagFormat, models.SeverityWarning,
				fmt.Sprintf("tag %q is not lowercase kebab-case", tag)))
		}
	}
	return issues
}

func checkDateFormat(rc *ruleContext, note *models.Note) []models.Issue {
	var issues []models.Issue
	for key, value := range map[string]string{"created": note.Created, "updated": note.Updated} {
		if value == "" {
			continue
		}
		if _, ok := ParseNoteDate(value); !ok {
			issues = append(issues, issue(note, RuleDateFormat, models.SeverityError,
				fmt.Sprintf("%s date %q is not YYYY-MM-DD or RFC3339", key, value)))
		}
	}
	return issues
}

// ParseNoteDate parses the date formats vault frontmatter uses.
func ParseNoteDate(value string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func checkTitleMismatch(rc *ruleContext, note *models.Note) []models.Issue {
	if note.FrontTitle == "" || note.H1 == "" {
		return nil
	}
	if strings.EqualFold(strings.TrimSpace(note.FrontTitle), strings.TrimSpace(note.H1)) {
		return nil
	}
	return []models.Issue{issue(note, RuleTitleMismatch, models.SeverityWarning,
		fmt.Sprintf("frontmatter title %q differs from first heading %q", note.FrontTitle, note.H1))}
}

func checkBrokenLinks(rc *ruleContext, note *models.Note) []models.Issue {
	var issues []models.Issue
	for _, link := range rc.linksBySource[note.Path] {
		if rc.resolver.Resolve(link.Target, link.IsEmbed) {
			continue
		}
		kind := "link"
		if link.IsEmbed {
			kind = "embed"
		}
		issues = append(issues, issue(note, RuleBrokenLinks, models.SeverityError,
			fmt.Sprintf("%s target [[%s]] does not resolve", kind, link.Target)))
	}
	return issues
}

func checkEmptyNote(rc *ruleContext, note *models.Note) []models.Issue {
	if note.WordCount >= rc.cfg.MinWords {
		return nil
	}
	return []models.Issue{issue(note, RuleEmptyNote, models.SeverityWarning,
		fmt.Sprintf("note body has %d words (minimum %d)", note.WordCount, rc.cfg.MinWords))}
}

var illegalFilenameRe = regexp.MustCompile(`[\\:*?"<>|#^\[\]]`)

func checkFilename(rc *ruleContext, note *models.Note) []models.Issue {
	base := note.Path
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	name := strings.TrimSuffix(base, ".md")

	var issues []models.Issue
	if illegalFilenameRe.MatchString(name) {
		issues = append(issues, issue(note, RuleFilename, models.SeverityWarning,
			fmt.Sprintf("file name %q contains characters Obsidian cannot link to", base)))
	}
	if name != strings.TrimSpace(name) {
		issues = append(issues, issue(note, RuleFilename, models.SeverityWarning,
			fmt.Sprintf("file name %q has leading or trailing spaces", base)))
	}
	return issues
}
