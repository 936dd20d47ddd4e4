// Package report renders console dashboards over the vault index: overview,
// issue breakdown, quality distribution, stale notes, and template usage.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"vaultkit/pkg/models"
	"vaultkit/pkg/utils"
)

var (
	header  = color.New(color.FgCyan, color.Bold)
	errCol  = color.New(color.FgRed)
	warnCol = color.New(color.FgYellow)
	infoCol = color.New(color.FgBlue)
	okCol   = color.New(color.FgGreen)
)

// Overview prints the vault summary table.
func Overview(w io.Writer, vault *models.Vault, stats *models.Stats) {
	header.Fprintf(w, "Vault: %s\n", vault.Name)
	fmt.Fprintf(w, "Root: %s\n\n", vault.RootPath)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Notes\t%d (%s)\n", stats.TotalNotes, utils.FormatSize(stats.TotalSize))
	fmt.Fprintf(tw, "Canvases\t%d\n", stats.TotalCanvases)
	fmt.Fprintf(tw, "Attachments\t%d\n", stats.Attachments)
	fmt.Fprintf(tw, "Wiki links\t%d\n", stats.TotalLinks)
	fmt.Fprintf(tw, "Archived\t%d (%s)\n", stats.ArchivedNotes, utils.FormatSize(stats.ArchivedSize))
	if stats.AssessedNotes > 0 {
		fmt.Fprintf(tw, "Avg quality\t%.2f (%d assessed)\n", stats.AverageQuality, stats.AssessedNotes)
	}
	tw.Flush()

	fmt.Fprintln(w)
	if stats.ErrorIssues == 0 && stats.WarningIssues == 0 {
		okCol.Fprintln(w, "No outstanding issues")
		return
	}
	fmt.Fprintf(w, "Issues: %s, %s, %s\n",
		errCol.Sprintf("%d errors", stats.ErrorIssues),
		warnCol.Sprintf("%d warnings", stats.WarningIssues),
		infoCol.Sprintf("%d info", stats.InfoIssues))
}

// Issues prints a per-rule breakdown followed by the individual findings,
// capped at top entries per severity ordering.
func Issues(w io.Writer, issues []models.Issue, top int) {
	if len(issues) == 0 {
		okCol.Fprintln(w, "No issues recorded. Run validate after a scan.")
		return
	}

	byRule := map[string]int{}
	for _, issue := range issues {
		byRule[issue.Rule]++
	}
	rules := make([]string, 0, len(byRule))
	for rule := range byRule {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool { return byRule[rules[i]] > byRule[rules[j]] })

	header.Fprintln(w, "Issues by rule")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, rule := range rules {
		fmt.Fprintf(tw, "%s\t%d\n", rule, byRule[rule])
	}
	tw.Flush()
	fmt.Fprintln(w)

	sorted := make([]models.Issue, len(issues))
	copy(sorted, issues)
	sort.SliceStable(sorted, func(i, j int) bool {
		return severityRank(sorted[i].Severity) < severityRank(sorted[j].Severity)
	})
	if top > 0 && len(sorted) > top {
		sorted = sorted[:top]
	}

	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, issue := range sorted {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			severityColor(issue.Severity).Sprint(issue.Severity),
			issue.Path, issue.Rule, issue.Message)
	}
	tw.Flush()
	if top > 0 && len(issues) > top {
		fmt.Fprintf(w, "... and %d more\n", len(issues)-top)
	}
}

// Quality prints a histogram of overall assessment scores in ten buckets.
func Quality(w io.Writer, assessments []models.Assessment) {
	if len(assessments) == 0 {
		fmt.Fprintln(w, "No assessments recorded. Run assess first.")
		return
	}

	var buckets [10]int
	for _, a := range assessments {
		idx := int(a.Overall * 10)
		if idx > 9 {
			idx = 9
		}
		buckets[idx]++
	}
	max := 0
	for _, n := range buckets {
		if n > max {
			max = n
		}
	}

	header.Fprintln(w, "Quality distribution")
	for i := 9; i >= 0; i-- {
		barLen := 0
		if max > 0 {
			barLen = buckets[i] * 40 / max
		}
		label := fmt.Sprintf("%.1f-%.1f", float64(i)/10, float64(i+1)/10)
		bar := strings.Repeat("█", barLen)
		switch {
		case i >= 7:
			bar = okCol.Sprint(bar)
		case i >= 4:
			bar = warnCol.Sprint(bar)
		default:
			bar = errCol.Sprint(bar)
		}
		fmt.Fprintf(w, "%s  %-40s %d\n", label, bar, buckets[i])
	}
}

// Stale prints the least recently modified notes.
func Stale(w io.Writer, notes []models.Note, top int, now time.Time) {
	indexed := make([]models.Note, 0, len(notes))
	for _, note := range notes {
		if note.State == models.NoteStateIndexed {
			indexed = append(indexed, note)
		}
	}
	if len(indexed) == 0 {
		fmt.Fprintln(w, "No indexed notes.")
		return
	}
	sort.Slice(indexed, func(i, j int) bool { return indexed[i].ModTime.Before(indexed[j].ModTime) })
	if top > 0 && len(indexed) > top {
		indexed = indexed[:top]
	}

	header.Fprintln(w, "Stalest notes")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, note := range indexed {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", note.Path, humanize.RelTime(note.ModTime, now, "ago", "from now"), utils.FormatSize(note.Size))
	}
	tw.Flush()
}

// Templates prints template usage metrics.
func Templates(w io.Writer, metrics []models.TemplateMetrics, now time.Time) {
	if len(metrics) == 0 {
		fmt.Fprintln(w, "No template usage recorded.")
		return
	}

	header.Fprintln(w, "Template usage")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TEMPLATE\tUSES\tLAST USED")
	for _, m := range metrics {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", m.Name, m.Uses, humanize.RelTime(m.LastUsed, now, "ago", "from now"))
	}
	tw.Flush()
}

// Canvases prints canvas health scores worst-first.
func Canvases(w io.Writer, canvases []models.CanvasInfo) {
	if len(canvases) == 0 {
		fmt.Fprintln(w, "No canvases indexed.")
		return
	}

	sorted := make([]models.CanvasInfo, len(canvases))
	copy(sorted, canvases)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Score < sorted[j].Score })

	header.Fprintln(w, "Canvas health")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CANVAS\tSCORE\tNODES\tEDGES\tPROBLEMS")
	for _, c := range sorted {
		score := fmt.Sprintf("%d", c.Score)
		switch {
		case c.Score >= 80:
			score = okCol.Sprint(score)
		case c.Score >= 50:
			score = warnCol.Sprint(score)
		default:
			score = errCol.Sprint(score)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n", c.Path, score, c.NodeCount, c.EdgeCount, len(c.Problems))
	}
	tw.Flush()
}

func severityRank(severity string) int {
	switch severity {
	case models.SeverityError:
		return 0
	case models.SeverityWarning:
		return 1
	default:
		return 2
	}
}

func severityColor(severity string) *color.Color {
	switch severity {
	case models.SeverityError:
		return errCol
	case models.SeverityWarning:
		return warnCol
	default:
		return infoCol
	}
}
