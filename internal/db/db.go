// Package db is the vault index store: one SQLite database per vault holding
// indexed notes, wiki links, validation issues, canvases, quality
// assessments, and template usage.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"vaultkit/pkg/models"
)

// DB represents a vault index database connection
type DB struct {
	*sql.DB
}

// New opens (creating if necessary) the index database at the given path.
func New(dbPath string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	db := &DB{sqlDB}
	if err := db.initialize(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return db, nil
}

// initialize creates the necessary tables if they don't exist
func (db *DB) initialize() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS vaults (
			name TEXT PRIMARY KEY,
			root_path TEXT,
			archive_folder TEXT,
			endpoint TEXT,
			bucket TEXT,
			folder TEXT,
			access_key TEXT,
			secret_key TEXT
		);
		CREATE TABLE IF NOT EXISTS notes (
			vault_name TEXT,
			path TEXT,
			title TEXT,
			h1 TEXT,
			front_title TEXT,
			size INTEGER,
			mod_time DATETIME,
			checksum TEXT,
			has_frontmatter INTEGER,
			frontmatter_ok INTEGER,
			tags TEXT,
			status TEXT,
			created TEXT,
			updated TEXT,
			aliases TEXT,
			word_count INTEGER,
			link_count INTEGER,
			task_count INTEGER,
			done_task_count INTEGER,
			heading_count INTEGER,
			heading_jumps INTEGER,
			state TEXT,
			PRIMARY KEY (vault_name, path)
		);
		CREATE TABLE IF NOT EXISTS links (
			vault_name TEXT,
			source_path TEXT,
			target TEXT,
			alias TEXT,
			is_embed INTEGER
		);
		CREATE TABLE IF NOT EXISTS issues (
			vault_name TEXT,
			path TEXT,
			rule TEXT,
			severity TEXT,
			message TEXT,
			line INTEGER
		);
		CREATE TABLE IF NOT EXISTS canvases (
			vault_name TEXT,
			path TEXT,
			size INTEGER,
			mod_time DATETIME,
			node_count INTEGER,
			edge_count INTEGER,
			score INTEGER,
			problems TEXT,
			PRIMARY KEY (vault_name, path)
		);
		CREATE TABLE IF NOT EXISTS attachments (
			vault_name TEXT,
			path TEXT,
			size INTEGER,
			mod_time DATETIME,
			PRIMARY KEY (vault_name, path)
		);
		CREATE TABLE IF NOT EXISTS assessments (
			vault_name TEXT,
			path TEXT,
			checksum TEXT,
			completeness REAL,
			accuracy REAL,
			freshness REAL,
			consistency REAL,
			validity REAL,
			overall REAL,
			assessed_at DATETIME,
			PRIMARY KEY (vault_name, path)
		);
		CREATE TABLE IF NOT EXISTS template_uses (
			vault_name TEXT,
			template TEXT,
			note_path TEXT,
			used_at DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_notes_state ON notes(vault_name, state);
		CREATE INDEX IF NOT EXISTS idx_notes_mod_time ON notes(vault_name, mod_time);
		CREATE INDEX IF NOT EXISTS idx_links_source ON links(vault_name, source_path);
		CREATE INDEX IF NOT EXISTS idx_issues_path ON issues(vault_name, path);
		CREATE INDEX IF NOT EXISTS idx_issues_severity ON issues(vault_name, severity);
		PRAGMA journal_mode=WAL;
		PRAGMA synchronous=NORMAL;
		PRAGMA temp_store=MEMORY;
	`)
	return err
}

// GetVault retrieves a vault by name
func (db *DB) GetVault(name string) (*models.Vault, error) {
	var vault models.Vault
	err := db.QueryRow(`
		SELECT name, root_path, archive_folder, endpoint, bucket, folder, access_key, secret_key
		FROM vaults WHERE name = ?
	`, name).Scan(
		&vault.Name,
		&vault.RootPath,
		&vault.ArchiveFolder,
		&vault.Destination.Endpoint,
		&vault.Destination.Bucket,
		&vault.Destination.Folder,
		&vault.Destination.AccessKey,
		&vault.Destination.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("vault not found: %v", err)
	}
	return &vault, nil
}

// CreateVault registers a new vault
func (db *DB) CreateVault(vault *models.Vault) error {
	_, err := db.Exec(`
		INSERT INTO vaults (name, root_path, archive_folder, endpoint, bucket, folder, access_key, secret_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		vault.Name,
		vault.RootPath,
		vault.ArchiveFolder,
		vault.Destination.Endpoint,
		vault.Destination.Bucket,
		vault.Destination.Folder,
		vault.Destination.AccessKey,
		vault.Destination.SecretKey,
	)
	return err
}

// GetNotes retrieves all indexed notes for a vault
func (db *DB) GetNotes(vaultName string) ([]models.Note, error) {
	rows, err := db.Query(`
		SELECT path, title, h1, front_title, size, mod_time, checksum, has_frontmatter,
		       frontmatter_ok, tags, status, created, updated, aliases,
		       word_count, link_count, task_count, done_task_count, heading_count, heading_jumps, state
		FROM notes
		WHERE vault_name = ?
		ORDER BY path
	`, vaultName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}
	return notes, rows.Err()
}

// GetNote retrieves a single note by vault-relative path
func (db *DB) GetNote(vaultName, path string) (*models.Note, error) {
	row := db.QueryRow(`
		SELECT path, title, h1, front_title, size, mod_time, checksum, has_frontmatter,
		       frontmatter_ok, tags, status, created, updated, aliases,
		       word_count, link_count, task_count, done_task_count, heading_count, heading_jumps, state
		FROM notes
		WHERE vault_name = ? AND path = ?
	`, vaultName, path)
	return scanNote(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*models.Note, error) {
	var note models.Note
	var hasFM, fmOK int
	var tags, aliases string
	err := row.Scan(
		&note.Path, &note.Title, &note.H1, &note.FrontTitle,
		&note.Size, &note.ModTime, &note.Checksum, &hasFM,
		&fmOK, &tags, &note.Status, &note.Created, &note.Updated, &aliases,
		&note.WordCount, &note.LinkCount, &note.TaskCount,
		&note.DoneTaskCount, &note.HeadingCount, &note.HeadingJumps, &note.State,
	)
	if err != nil {
		return nil, err
	}
	note.HasFrontmatter = hasFM != 0
	note.FrontmatterOK = fmOK != 0
	note.Tags = decodeStrings(tags)
	note.Aliases = decodeStrings(aliases)
	return &note, nil
}

// SaveNotesBatch saves multiple note records in a single transaction
func (db *DB) SaveNotesBatch(vaultName string, notes []models.Note) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO notes (
			vault_name, path, title, h1, front_title, size, mod_time, checksum,
			has_frontmatter, frontmatter_ok, tags, status, created, updated, aliases,
			word_count, link_count, task_count, done_task_count, heading_count, heading_jumps, state
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, note := range notes {
		hasFM := 0
		if note.HasFrontmatter {
			hasFM = 1
		}
		fmOK := 0
		if note.FrontmatterOK {
			fmOK = 1
		}
		_, err = stmt.Exec(
			vaultName, note.Path, note.Title, note.H1, note.FrontTitle,
			note.Size, note.ModTime, note.Checksum, hasFM, fmOK,
			encodeStrings(note.Tags), note.Status, note.Created, note.Updated,
			encodeStrings(note.Aliases),
			note.WordCount, note.LinkCount, note.TaskCount,
			note.DoneTaskCount, note.HeadingCount, note.HeadingJumps, note.State,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteNotesBatch removes note records (and their links, issues, and
// assessments) in a single transaction
func (db *DB) DeleteNotesBatch(vaultName string, paths []string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"notes", "issues", "assessments"} {
		stmt, err := tx.Prepare(`DELETE FROM ` + table + ` WHERE vault_name = ? AND path = ?`)
		if err != nil {
			return err
		}
		for _, path := range paths {
			if _, err := stmt.Exec(vaultName, path); err != nil {
				stmt.Close()
				return err
			}
		}
		stmt.Close()
	}

	stmt, err := tx.Prepare(`DELETE FROM links WHERE vault_name = ? AND source_path = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, path := range paths {
		if _, err := stmt.Exec(vaultName, path); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// UpdateNoteStateBatch updates the state of multiple notes in a single transaction
func (db *DB) UpdateNoteStateBatch(vaultName string, paths []string, state string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		UPDATE notes
		SET state = ?
		WHERE vault_name = ? AND path = ?
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, path := range paths {
		if _, err := stmt.Exec(state, vaultName, path); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// MoveNote records an archival move: the note keeps its index row under the
// new path with the given state, and dependent rows follow it.
func (db *DB) MoveNote(vaultName, oldPath, newPath, state string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		UPDATE notes SET path = ?, state = ? WHERE vault_name = ? AND path = ?
	`, newPath, state, vaultName, oldPath); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		UPDATE links SET source_path = ? WHERE vault_name = ? AND source_path = ?
	`, newPath, vaultName, oldPath); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		DELETE FROM issues WHERE vault_name = ? AND path = ?
	`, vaultName, oldPath); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		UPDATE assessments SET path = ? WHERE vault_name = ? AND path = ?
	`, newPath, vaultName, oldPath); err != nil {
		return err
	}

	return tx.Commit()
}

// ReplaceLinks replaces the outgoing links of the given source notes
func (db *DB) ReplaceLinks(vaultName string, bySource map[string][]models.WikiLink) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	del, err := tx.Prepare(`DELETE FROM links WHERE vault_name = ? AND source_path = ?`)
	if err != nil {
		return err
	}
	defer del.Close()

	ins, err := tx.Prepare(`
		INSERT INTO links (vault_name, source_path, target, alias, is_embed)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer ins.Close()

	for source, links := range bySource {
		if _, err := del.Exec(vaultName, source); err != nil {
			return err
		}
		for _, link := range links {
			isEmbed := 0
			if link.IsEmbed {
				isEmbed = 1
			}
			if _, err := ins.Exec(vaultName, source, link.Target, link.Alias, isEmbed); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// GetLinks retrieves all wiki links for a vault
func (db *DB) GetLinks(vaultName string) ([]models.WikiLink, error) {
	rows, err := db.Query(`
		SELECT source_path, target, alias, is_embed
		FROM links
		WHERE vault_name = ?
	`, vaultName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []models.WikiLink
	for rows.Next() {
		var link models.WikiLink
		var isEmbed int
		if err := rows.Scan(&link.SourcePath, &link.Target, &link.Alias, &isEmbed); err != nil {
			return nil, err
		}
		link.IsEmbed = isEmbed != 0
		links = append(links, link)
	}
	return links, rows.Err()
}

// ReplaceIssues deletes the issues of the given paths and saves the new set
// in a single transaction. A nil paths slice clears the whole vault.
func (db *DB) ReplaceIssues(vaultName string, paths []string, issues []models.Issue) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if paths == nil {
		if _, err := tx.Exec(`DELETE FROM issues WHERE vault_name = ?`, vaultName); err != nil {
			return err
		}
	} else {
		del, err := tx.Prepare(`DELETE FROM issues WHERE vault_name = ? AND path = ?`)
		if err != nil {
			return err
		}
		for _, path := range paths {
			if _, err := del.Exec(vaultName, path); err != nil {
				del.Close()
				return err
			}
		}
		del.Close()
	}

	ins, err := tx.Prepare(`
		INSERT INTO issues (vault_name, path, rule, severity, message, line)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer ins.Close()

	for _, issue := range issues {
		if _, err := ins.Exec(vaultName, issue.Path, issue.Rule, issue.Severity, issue.Message, issue.Line); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetIssues retrieves all validation issues for a vault
func (db *DB) GetIssues(vaultName string) ([]models.Issue, error) {
	rows, err := db.Query(`
		SELECT path, rule, severity, message, line
		FROM issues
		WHERE vault_name = ?
		ORDER BY path, line
	`, vaultName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var issues []models.Issue
	for rows.Next() {
		var issue models.Issue
		if err := rows.Scan(&issue.Path, &issue.Rule, &issue.Severity, &issue.Message, &issue.Line); err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// SaveCanvasesBatch saves canvas records in a single transaction
func (db *DB) SaveCanvasesBatch(vaultName string, canvases []models.CanvasInfo) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO canvases (vault_name, path, size, mod_time, node_count, edge_count, score, problems)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, canvas := range canvases {
		_, err = stmt.Exec(
			vaultName, canvas.Path, canvas.Size, canvas.ModTime,
			canvas.NodeCount, canvas.EdgeCount, canvas.Score,
			encodeStrings(canvas.Problems),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteCanvasesBatch removes canvas records in a single transaction
func (db *DB) DeleteCanvasesBatch(vaultName string, paths []string) error {
	return db.deleteByPath("canvases", vaultName, paths)
}

// GetCanvases retrieves all canvas records for a vault
func (db *DB) GetCanvases(vaultName string) ([]models.CanvasInfo, error) {
	rows, err := db.Query(`
		SELECT path, size, mod_time, node_count, edge_count, score, problems
		FROM canvases
		WHERE vault_name = ?
		ORDER BY path
	`, vaultName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var canvases []models.CanvasInfo
	for rows.Next() {
		var canvas models.CanvasInfo
		var problems string
		err := rows.Scan(&canvas.Path, &canvas.Size, &canvas.ModTime,
			&canvas.NodeCount, &canvas.EdgeCount, &canvas.Score, &problems)
		if err != nil {
			return nil, err
		}
		canvas.Problems = decodeStrings(problems)
		canvases = append(canvases, canvas)
	}
	return canvases, rows.Err()
}

// SaveAttachmentsBatch saves attachment records in a single transaction
func (db *DB) SaveAttachmentsBatch(vaultName string, attachments []models.Attachment) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO attachments (vault_name, path, size, mod_time)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, att := range attachments {
		if _, err := stmt.Exec(vaultName, att.Path, att.Size, att.ModTime); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteAttachmentsBatch removes attachment records in a single transaction
func (db *DB) DeleteAttachmentsBatch(vaultName string, paths []string) error {
	return db.deleteByPath("attachments", vaultName, paths)
}

// GetAttachments retrieves all attachment records for a vault
func (db *DB) GetAttachments(vaultName string) ([]models.Attachment, error) {
	rows, err := db.Query(`SELECT path, size, mod_time FROM attachments WHERE vault_name = ?`, vaultName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []models.Attachment
	for rows.Next() {
		var att models.Attachment
		if err := rows.Scan(&att.Path, &att.Size, &att.ModTime); err != nil {
			return nil, err
		}
		attachments = append(attachments, att)
	}
	return attachments, rows.Err()
}

// GetAttachmentPaths retrieves all attachment paths for a vault
func (db *DB) GetAttachmentPaths(vaultName string) ([]string, error) {
	rows, err := db.Query(`SELECT path FROM attachments WHERE vault_name = ?`, vaultName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

// SaveAssessment persists a quality assessment for a note
func (db *DB) SaveAssessment(vaultName string, a models.Assessment) error {
	_, err := db.Exec(`
		INSERT OR REPLACE INTO assessments
			(vault_name, path, checksum, completeness, accuracy, freshness, consistency, validity, overall, assessed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, vaultName, a.Path, a.Checksum,
		a.Completeness, a.Accuracy, a.Freshness, a.Consistency, a.Validity,
		a.Overall, a.AssessedAt)
	return err
}

// GetAssessments retrieves all persisted assessments for a vault
func (db *DB) GetAssessments(vaultName string) ([]models.Assessment, error) {
	rows, err := db.Query(`
		SELECT path, checksum, completeness, accuracy, freshness, consistency, validity, overall, assessed_at
		FROM assessments
		WHERE vault_name = ?
		ORDER BY overall DESC
	`, vaultName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assessments []models.Assessment
	for rows.Next() {
		var a models.Assessment
		err := rows.Scan(&a.Path, &a.Checksum,
			&a.Completeness, &a.Accuracy, &a.Freshness, &a.Consistency, &a.Validity,
			&a.Overall, &a.AssessedAt)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}

// RecordTemplateUse records a single template instantiation
func (db *DB) RecordTemplateUse(vaultName, template, notePath string, usedAt time.Time) error {
	_, err := db.Exec(`
		INSERT INTO template_uses (vault_name, template, note_path, used_at)
		VALUES (?, ?, ?, ?)
	`, vaultName, template, notePath, usedAt)
	return err
}

// GetTemplateMetrics aggregates template usage for a vault
func (db *DB) GetTemplateMetrics(vaultName string) ([]models.TemplateMetrics, error) {
	rows, err := db.Query(`
		SELECT template, COUNT(*), MAX(used_at)
		FROM template_uses
		WHERE vault_name = ?
		GROUP BY template
		ORDER BY COUNT(*) DESC
	`, vaultName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metrics []models.TemplateMetrics
	for rows.Next() {
		var m models.TemplateMetrics
		var lastUsed string
		if err := rows.Scan(&m.Name, &m.Uses, &lastUsed); err != nil {
			return nil, err
		}
		// MAX() strips the column's declared type, so the driver hands the
		// timestamp back as text.
		m.LastUsed = parseStoredTime(lastUsed)
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

func parseStoredTime(value string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999 -0700 MST",
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// GetStats returns statistics about the vault index
func (db *DB) GetStats(vaultName string) (*models.Stats, error) {
	var stats models.Stats
	err := db.QueryRow(`
		SELECT
			COUNT(*) as total_notes,
			COALESCE(SUM(size), 0) as total_size,
			COUNT(CASE WHEN state != ? THEN 1 END) as archived_notes,
			COALESCE(SUM(CASE WHEN state != ? THEN size ELSE 0 END), 0) as archived_size
		FROM notes
		WHERE vault_name = ?
	`, models.NoteStateIndexed, models.NoteStateIndexed, vaultName).Scan(
		&stats.TotalNotes,
		&stats.TotalSize,
		&stats.ArchivedNotes,
		&stats.ArchivedSize,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %v", err)
	}

	err = db.QueryRow(`
		SELECT
			COUNT(CASE WHEN severity = ? THEN 1 END),
			COUNT(CASE WHEN severity = ? THEN 1 END),
			COUNT(CASE WHEN severity = ? THEN 1 END)
		FROM issues
		WHERE vault_name = ?
	`, models.SeverityError, models.SeverityWarning, models.SeverityInfo, vaultName).Scan(
		&stats.ErrorIssues,
		&stats.WarningIssues,
		&stats.InfoIssues,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get issue stats: %v", err)
	}

	if err := db.QueryRow(`SELECT COUNT(*) FROM canvases WHERE vault_name = ?`, vaultName).Scan(&stats.TotalCanvases); err != nil {
		return nil, err
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM links WHERE vault_name = ?`, vaultName).Scan(&stats.TotalLinks); err != nil {
		return nil, err
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM attachments WHERE vault_name = ?`, vaultName).Scan(&stats.Attachments); err != nil {
		return nil, err
	}
	if err := db.QueryRow(`
		SELECT COUNT(*), COALESCE(AVG(overall), 0)
		FROM assessments WHERE vault_name = ?
	`, vaultName).Scan(&stats.AssessedNotes, &stats.AverageQuality); err != nil {
		return nil, err
	}

	return &stats, nil
}

func (db *DB) deleteByPath(table, vaultName string, paths []string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`DELETE FROM ` + table + ` WHERE vault_name = ? AND path = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, path := range paths {
		if _, err := stmt.Exec(vaultName, path); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// encodeStrings stores a string slice as JSON text; empty slices store as "".
func encodeStrings(values []string) string {
	if len(values) == 0 {
		return ""
	}
	data, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return string(data)
}

func decodeStrings(data string) []string {
	if data == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil
	}
	return values
}
