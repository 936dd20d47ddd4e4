// Package export writes the vault index to an xlsx workbook with Notes,
// Issues, Canvases, and Summary sheets.
package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"vaultkit/pkg/models"
)

// Workbook writes the given index data to path.
func Workbook(path string, vault *models.Vault, notes []models.Note, issues []models.Issue, canvases []models.CanvasInfo, stats *models.Stats) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := notesSheet(f, headerStyle, notes); err != nil {
		return err
	}
	if err := issuesSheet(f, headerStyle, issues); err != nil {
		return err
	}
	if err := canvasesSheet(f, headerStyle, canvases); err != nil {
		return err
	}
	if err := summarySheet(f, headerStyle, vault, stats); err != nil {
		return err
	}

	// The default sheet is replaced by the ones above.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	if idx, err := f.GetSheetIndex("Summary"); err == nil {
		f.SetActiveSheet(idx)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, style int, columns []string) error {
	for i, name := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}
	endCell, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", endCell, style)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}

func notesSheet(f *excelize.File, style int, notes []models.Note) error {
	const sheet = "Notes"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	columns := []string{"Path", "Title", "State", "Size", "Modified", "Words", "Links", "Tasks", "Tags", "Status"}
	if err := writeHeader(f, sheet, style, columns); err != nil {
		return err
	}

	for i, note := range notes {
		values := []any{
			note.Path, note.Title, note.State, note.Size,
			note.ModTime.Format("2006-01-02 15:04"),
			note.WordCount, note.LinkCount, note.TaskCount,
			strings.Join(note.Tags, ", "), note.Status,
		}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "B", 40)
}

func issuesSheet(f *excelize.File, style int, issues []models.Issue) error {
	const sheet = "Issues"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := writeHeader(f, sheet, style, []string{"Path", "Rule", "Severity", "Message"}); err != nil {
		return err
	}

	for i, issue := range issues {
		if err := setRow(f, sheet, i+2, []any{issue.Path, issue.Rule, issue.Severity, issue.Message}); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 40); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "D", "D", 60)
}

func canvasesSheet(f *excelize.File, style int, canvases []models.CanvasInfo) error {
	const sheet = "Canvases"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := writeHeader(f, sheet, style, []string{"Path", "Score", "Nodes", "Edges", "Problems"}); err != nil {
		return err
	}

	for i, c := range canvases {
		values := []any{c.Path, c.Score, c.NodeCount, c.EdgeCount, strings.Join(c.Problems, "; ")}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 40); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "E", "E", 60)
}

func summarySheet(f *excelize.File, style int, vault *models.Vault, stats *models.Stats) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := writeHeader(f, sheet, style, []string{"Metric", "Value"}); err != nil {
		return err
	}

	rows := [][]any{
		{"Vault", vault.Name},
		{"Root path", vault.RootPath},
		{"Total notes", stats.TotalNotes},
		{"Total size (bytes)", stats.TotalSize},
		{"Canvases", stats.TotalCanvases},
		{"Attachments", stats.Attachments},
		{"Wiki links", stats.TotalLinks},
		{"Error issues", stats.ErrorIssues},
		{"Warning issues", stats.WarningIssues},
		{"Info issues", stats.InfoIssues},
		{"Archived notes", stats.ArchivedNotes},
		{"Assessed notes", stats.AssessedNotes},
		{"Average quality", stats.AverageQuality},
	}
	for i, values := range rows {
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "B", 25)
}
