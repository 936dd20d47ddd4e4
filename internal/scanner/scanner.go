// Package scanner walks a vault and keeps its index database current. A scan
// diffs the tree against the index by size and modification time, re-parses
// only what changed, and removes what vanished.
package scanner

import (
	"context"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/crypto/blake2b"

	"vaultkit/internal/canvas"
	"vaultkit/internal/config"
	"vaultkit/internal/db"
	"vaultkit/internal/logger"
	"vaultkit/internal/markdown"
	"vaultkit/pkg/models"
)

// Scanner indexes a single vault.
type Scanner struct {
	db           *db.DB
	vault        *models.Vault
	log          *logger.Logger
	batchSize    int
	ignoreDirs   map[string]bool
	showProgress bool
}

// Result summarizes one scan.
type Result struct {
	NotesAdded   int
	NotesUpdated int
	NotesRemoved int
	Unchanged    int
	Canvases     int
	Attachments  int
	Duration     time.Duration
}

// New creates a scanner for the given vault.
func New(database *db.DB, vault *models.Vault, cfg config.Scan, log *logger.Logger) *Scanner {
	ignore := map[string]bool{".obsidian": true, ".trash": true}
	for _, dir := range cfg.IgnoreDirs {
		ignore[dir] = true
	}
	if vault.ArchiveFolder != "" {
		ignore[vault.ArchiveFolder] = true
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 500
	}

	return &Scanner{
		db:         database,
		vault:      vault,
		log:        log,
		batchSize:  batch,
		ignoreDirs: ignore,
	}
}

// WithProgress enables a console progress bar for the parse phase.
func (s *Scanner) WithProgress() *Scanner {
	s.showProgress = true
	return s
}

type foundFile struct {
	relPath string
	size    int64
	modTime time.Time
}

// Scan walks the vault and updates the index. When full is true every file
// is re-parsed regardless of the size/modtime diff.
func (s *Scanner) Scan(ctx context.Context, full bool) (*Result, error) {
	start := time.Now()

	existingNotes, err := s.noteIndex()
	if err != nil {
		return nil, err
	}
	existingCanvases, err := s.canvasIndex()
	if err != nil {
		return nil, err
	}
	existingAttachments, err := s.attachmentIndex()
	if err != nil {
		return nil, err
	}

	var mdFiles, canvasFiles, attachmentFiles []foundFile
	err = filepath.WalkDir(s.vault.RootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		name := d.Name()
		if d.IsDir() {
			if path == s.vault.RootPath {
				return nil
			}
			if strings.HasPrefix(name, ".") || s.ignoreDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}

		relPath, err := filepath.Rel(s.vault.RootPath, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		info, err := d.Info()
		if err != nil {
			s.log.Warn().Str("path", relPath).Err(err).Msg("stat failed, skipping")
			return nil
		}

		found := foundFile{relPath: relPath, size: info.Size(), modTime: info.ModTime()}
		switch strings.ToLower(filepath.Ext(name)) {
		case ".md":
			mdFiles = append(mdFiles, found)
		case ".canvas":
			canvasFiles = append(canvasFiles, found)
		default:
			attachmentFiles = append(attachmentFiles, found)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk vault: %w", err)
	}

	// Every path the walk produced, for canvas file-reference resolution.
	allPaths := make(map[string]bool, len(mdFiles)+len(canvasFiles)+len(attachmentFiles))
	for _, lists := range [][]foundFile{mdFiles, canvasFiles, attachmentFiles} {
		for _, f := range lists {
			allPaths[f.relPath] = true
		}
	}

	result := &Result{}
	if err := s.scanNotes(ctx, mdFiles, existingNotes, full, result); err != nil {
		return nil, err
	}
	if err := s.scanCanvases(ctx, canvasFiles, existingCanvases, allPaths, full, result); err != nil {
		return nil, err
	}
	if err := s.scanAttachments(attachmentFiles, existingAttachments, result); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	s.log.Info().
		Int("added", result.NotesAdded).
		Int("updated", result.NotesUpdated).
		Int("removed", result.NotesRemoved).
		Int("unchanged", result.Unchanged).
		Int("canvases", result.Canvases).
		Dur("took", result.Duration).
		Msg("scan complete")
	return result, nil
}

// ScanFile re-indexes a single vault-relative file. Used by watch mode.
func (s *Scanner) ScanFile(ctx context.Context, relPath string) error {
	absPath := filepath.Join(s.vault.RootPath, filepath.FromSlash(relPath))
	info, err := os.Stat(absPath)
	if os.IsNotExist(err) {
		switch strings.ToLower(filepath.Ext(relPath)) {
		case ".md":
			return s.db.DeleteNotesBatch(s.vault.Name, []string{relPath})
		case ".canvas":
			return s.db.DeleteCanvasesBatch(s.vault.Name, []string{relPath})
		default:
			return s.db.DeleteAttachmentsBatch(s.vault.Name, []string{relPath})
		}
	}
	if err != nil {
		return err
	}

	found := foundFile{relPath: relPath, size: info.Size(), modTime: info.ModTime()}
	switch strings.ToLower(filepath.Ext(relPath)) {
	case ".md":
		note, links, err := s.parseNote(found, models.NoteStateIndexed)
		if err != nil {
			return err
		}
		if err := s.db.SaveNotesBatch(s.vault.Name, []models.Note{note}); err != nil {
			return err
		}
		return s.db.ReplaceLinks(s.vault.Name, map[string][]models.WikiLink{relPath: links})
	case ".canvas":
		indexed, err := s.indexedPaths()
		if err != nil {
			return err
		}
		info, err := s.parseCanvas(found, func(ref string) bool { return indexed[ref] })
		if err != nil {
			return err
		}
		return s.db.SaveCanvasesBatch(s.vault.Name, []models.CanvasInfo{info})
	default:
		return s.db.SaveAttachmentsBatch(s.vault.Name, []models.Attachment{
			{Path: relPath, Size: found.size, ModTime: found.modTime},
		})
	}
}

func (s *Scanner) scanNotes(ctx context.Context, files []foundFile, existing map[string]models.Note, full bool, result *Result) error {
	var bar *pb.ProgressBar
	if s.showProgress && len(files) > 0 {
		bar = pb.StartNew(len(files))
		defer bar.Finish()
	}

	pending := make([]models.Note, 0, s.batchSize)
	pendingLinks := make(map[string][]models.WikiLink, s.batchSize)
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := s.db.SaveNotesBatch(s.vault.Name, pending); err != nil {
			return err
		}
		if err := s.db.ReplaceLinks(s.vault.Name, pendingLinks); err != nil {
			return err
		}
		pending = pending[:0]
		pendingLinks = make(map[string][]models.WikiLink, s.batchSize)
		return nil
	}

	for _, f := range files {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if bar != nil {
			bar.Increment()
		}

		prev, seen := existing[f.relPath]
		delete(existing, f.relPath)

		if seen && !full && prev.Size == f.size && prev.ModTime.Equal(f.modTime) {
			result.Unchanged++
			continue
		}

		state := models.NoteStateIndexed
		if seen {
			state = prev.State
		}
		note, links, err := s.parseNote(f, state)
		if err != nil {
			s.log.Warn().Str("path", f.relPath).Err(err).Msg("failed to read note, keeping previous record")
			continue
		}

		if seen {
			result.NotesUpdated++
		} else {
			result.NotesAdded++
		}
		pending = append(pending, note)
		pendingLinks[f.relPath] = links

		if len(pending) >= s.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	// Whatever is left in existing vanished from the tree. Rows in archived
	// or uploaded states live under the archive folder, which the walk
	// skips; they are history, not removals.
	var gone []string
	for path, note := range existing {
		if note.State == models.NoteStateIndexed {
			gone = append(gone, path)
		}
	}
	if len(gone) > 0 {
		if err := s.db.DeleteNotesBatch(s.vault.Name, gone); err != nil {
			return err
		}
		result.NotesRemoved = len(gone)
	}
	return nil
}

func (s *Scanner) scanCanvases(ctx context.Context, files []foundFile, existing map[string]models.CanvasInfo, allPaths map[string]bool, full bool, result *Result) error {
	fileExists := func(ref string) bool { return allPaths[ref] }

	var pending []models.CanvasInfo
	for _, f := range files {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		prev, seen := existing[f.relPath]
		delete(existing, f.relPath)
		result.Canvases++

		if seen && !full && prev.Size == f.size && prev.ModTime.Equal(f.modTime) {
			continue
		}

		info, err := s.parseCanvas(f, fileExists)
		if err != nil {
			s.log.Warn().Str("path", f.relPath).Err(err).Msg("failed to read canvas")
			continue
		}
		pending = append(pending, info)
	}

	if len(pending) > 0 {
		if err := s.db.SaveCanvasesBatch(s.vault.Name, pending); err != nil {
			return err
		}
	}

	if len(existing) > 0 {
		gone := make([]string, 0, len(existing))
		for path := range existing {
			gone = append(gone, path)
		}
		if err := s.db.DeleteCanvasesBatch(s.vault.Name, gone); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) scanAttachments(files []foundFile, existing map[string]models.Attachment, result *Result) error {
	var pending []models.Attachment
	for _, f := range files {
		prev, seen := existing[f.relPath]
		delete(existing, f.relPath)
		if seen && prev.Size == f.size && prev.ModTime.Equal(f.modTime) {
			continue
		}
		pending = append(pending, models.Attachment{Path: f.relPath, Size: f.size, ModTime: f.modTime})
	}
	result.Attachments = len(files)

	if len(pending) > 0 {
		if err := s.db.SaveAttachmentsBatch(s.vault.Name, pending); err != nil {
			return err
		}
	}
	if len(existing) > 0 {
		gone := make([]string, 0, len(existing))
		for path := range existing {
			gone = append(gone, path)
		}
		if err := s.db.DeleteAttachmentsBatch(s.vault.Name, gone); err != nil {
			return err
		}
	}
	return nil
}

// parseNote reads and parses one markdown file into an index record plus its
// outgoing wiki links.
func (s *Scanner) parseNote(f foundFile, state string) (models.Note, []models.WikiLink, error) {
	absPath := filepath.Join(s.vault.RootPath, filepath.FromSlash(f.relPath))
	source, err := os.ReadFile(absPath)
	if err != nil {
		return models.Note{}, nil, err
	}

	doc := markdown.ParseDocument(source)
	sum := blake2b.Sum256(source)

	note := models.Note{
		Path:           f.relPath,
		H1:             doc.H1,
		FrontTitle:     doc.FrontMatter.Title,
		Size:           f.size,
		ModTime:        f.modTime,
		Checksum:       hex.EncodeToString(sum[:]),
		HasFrontmatter: doc.HasFrontmatter,
		FrontmatterOK:  !doc.HasFrontmatter || doc.FrontmatterErr == nil,
		Tags:           doc.FrontMatter.Tags,
		Status:         doc.FrontMatter.Status,
		Created:        doc.FrontMatter.Created,
		Updated:        doc.FrontMatter.Updated,
		Aliases:        doc.FrontMatter.Aliases,
		WordCount:      doc.WordCount,
		LinkCount:      len(doc.WikiLinks),
		TaskCount:      doc.TaskCount,
		DoneTaskCount:  doc.DoneTaskCount,
		HeadingCount:   len(doc.Headings),
		HeadingJumps:   doc.HeadingJumps,
		State:          state,
	}
	note.Title = displayTitle(&note)

	links := make([]models.WikiLink, 0, len(doc.WikiLinks))
	for _, wl := range doc.WikiLinks {
		links = append(links, models.WikiLink{
			SourcePath: f.relPath,
			Target:     wl.Target,
			Alias:      wl.Alias,
			IsEmbed:    wl.IsEmbed,
		})
	}
	return note, links, nil
}

func (s *Scanner) parseCanvas(f foundFile, fileExists func(string) bool) (models.CanvasInfo, error) {
	absPath := filepath.Join(s.vault.RootPath, filepath.FromSlash(f.relPath))
	data, err := os.ReadFile(absPath)
	if err != nil {
		return models.CanvasInfo{}, err
	}

	info := models.CanvasInfo{Path: f.relPath, Size: f.size, ModTime: f.modTime}

	c, err := canvas.Parse(data)
	if err != nil {
		// A malformed canvas is an indexable condition, not a scan failure.
		info.Score = 0
		info.Problems = []string{fmt.Sprintf("unparseable: %v", err)}
		return info, nil
	}

	score, problems := canvas.Analyze(c, fileExists)
	info.NodeCount = len(c.Nodes)
	info.EdgeCount = len(c.Edges)
	info.Score = score
	info.Problems = problems
	return info, nil
}

// displayTitle resolves the title shown for a note: frontmatter title, then
// first H1, then the file name.
func displayTitle(note *models.Note) string {
	if note.FrontTitle != "" {
		return note.FrontTitle
	}
	if note.H1 != "" {
		return note.H1
	}
	base := filepath.Base(note.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (s *Scanner) noteIndex() (map[string]models.Note, error) {
	notes, err := s.db.GetNotes(s.vault.Name)
	if err != nil {
		return nil, err
	}
	index := make(map[string]models.Note, len(notes))
	for _, note := range notes {
		index[note.Path] = note
	}
	return index, nil
}

func (s *Scanner) canvasIndex() (map[string]models.CanvasInfo, error) {
	canvases, err := s.db.GetCanvases(s.vault.Name)
	if err != nil {
		return nil, err
	}
	index := make(map[string]models.CanvasInfo, len(canvases))
	for _, c := range canvases {
		index[c.Path] = c
	}
	return index, nil
}

func (s *Scanner) attachmentIndex() (map[string]models.Attachment, error) {
	attachments, err := s.db.GetAttachments(s.vault.Name)
	if err != nil {
		return nil, err
	}
	index := make(map[string]models.Attachment, len(attachments))
	for _, att := range attachments {
		index[att.Path] = att
	}
	return index, nil
}

// indexedPaths collects every indexed file path for canvas file-reference
// resolution outside a full walk.
func (s *Scanner) indexedPaths() (map[string]bool, error) {
	notes, err := s.db.GetNotes(s.vault.Name)
	if err != nil {
		return nil, err
	}
	canvases, err := s.db.GetCanvases(s.vault.Name)
	if err != nil {
		return nil, err
	}
	attachments, err := s.db.GetAttachmentPaths(s.vault.Name)
	if err != nil {
		return nil, err
	}

	paths := make(map[string]bool, len(notes)+len(canvases)+len(attachments))
	for _, note := range notes {
		paths[note.Path] = true
	}
	for _, c := range canvases {
		paths[c.Path] = true
	}
	for _, path := range attachments {
		paths[path] = true
	}
	return paths, nil
}
