// Package archive moves stale notes into the vault's archive folder and
// optionally uploads them to the vault's object-storage destination.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vaultkit/internal/config"
	"vaultkit/internal/db"
	"vaultkit/internal/logger"
	"vaultkit/pkg/models"
)

// Candidate is a note selected for archival and the reason it qualified.
type Candidate struct {
	Note   models.Note
	Reason string
}

// Result summarizes an archival run.
type Result struct {
	Moved   int
	Skipped int
	Failed  int
}

// Archiver plans and executes archival for one vault.
type Archiver struct {
	db    *db.DB
	vault *models.Vault
	cfg   config.Archive
	log   *logger.Logger
	now   func() time.Time
}

// New creates an archiver.
func New(database *db.DB, vault *models.Vault, cfg config.Archive, log *logger.Logger) *Archiver {
	return &Archiver{
		db:    database,
		vault: vault,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

// Plan selects archival candidates: indexed notes not modified within
// olderThan, or whose frontmatter status is in the configured archivable
// set. Zero olderThan falls back to the configured default.
func (a *Archiver) Plan(olderThan time.Duration) ([]Candidate, error) {
	if a.vault.ArchiveFolder == "" {
		return nil, fmt.Errorf("vault %s has no archive folder configured", a.vault.Name)
	}
	if olderThan <= 0 {
		olderThan = a.cfg.OlderThan
	}
	cutoff := a.now().Add(-olderThan)

	statuses := make(map[string]bool, len(a.cfg.Statuses))
	for _, status := range a.cfg.Statuses {
		statuses[strings.ToLower(status)] = true
	}

	notes, err := a.db.GetNotes(a.vault.Name)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, note := range notes {
		if note.State != models.NoteStateIndexed {
			continue
		}
		switch {
		case statuses[strings.ToLower(note.Status)]:
			candidates = append(candidates, Candidate{
				Note:   note,
				Reason: fmt.Sprintf("status %q", note.Status),
			})
		case note.ModTime.Before(cutoff):
			candidates = append(candidates, Candidate{
				Note:   note,
				Reason: fmt.Sprintf("not modified since %s", note.ModTime.Format("2006-01-02")),
			})
		}
	}
	return candidates, nil
}

// Execute moves the candidates into the archive folder, preserving their
// relative subpath under a year directory. Per-note failures are logged and
// counted, never fatal.
func (a *Archiver) Execute(ctx context.Context, candidates []Candidate) (*Result, error) {
	result := &Result{}
	year := a.now().Format("2006")

	for _, cand := range candidates {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		srcAbs := filepath.Join(a.vault.RootPath, filepath.FromSlash(cand.Note.Path))
		if _, err := os.Stat(srcAbs); os.IsNotExist(err) {
			a.log.Warn().Str("path", cand.Note.Path).Msg("skipping: note no longer exists")
			result.Skipped++
			continue
		}

		destRel := a.vault.ArchiveFolder + "/" + year + "/" + cand.Note.Path
		destAbs := filepath.Join(a.vault.RootPath, filepath.FromSlash(destRel))
		destAbs, destRel = avoidCollision(destAbs, destRel)

		if err := os.MkdirAll(filepath.Dir(destAbs), 0o755); err != nil {
			a.log.Error().Str("path", cand.Note.Path).Err(err).Msg("failed to create archive folder")
			result.Failed++
			continue
		}
		if err := os.Rename(srcAbs, destAbs); err != nil {
			a.log.Error().Str("path", cand.Note.Path).Err(err).Msg("failed to move note")
			result.Failed++
			continue
		}

		if err := a.db.MoveNote(a.vault.Name, cand.Note.Path, destRel, models.NoteStateArchived); err != nil {
			a.log.Error().Str("path", cand.Note.Path).Err(err).Msg("failed to update index after move")
			result.Failed++
			continue
		}

		a.log.Info().Str("from", cand.Note.Path).Str("to", destRel).Str("reason", cand.Reason).Msg("archived")
		result.Moved++
	}
	return result, nil
}

// avoidCollision appends " (n)" before the extension until the destination
// does not exist. Archival must never overwrite.
func avoidCollision(absPath, relPath string) (string, string) {
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return absPath, relPath
	}

	ext := filepath.Ext(relPath)
	absBase := strings.TrimSuffix(absPath, ext)
	relBase := strings.TrimSuffix(relPath, ext)

	for n := 1; ; n++ {
		tryAbs := fmt.Sprintf("%s (%d)%s", absBase, n, ext)
		if _, err := os.Stat(tryAbs); os.IsNotExist(err) {
			return tryAbs, fmt.Sprintf("%s (%d)%s", relBase, n, ext)
		}
	}
}
