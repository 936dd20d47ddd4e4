package models

import "time"

// Note lifecycle states as tracked in the index.
const (
	NoteStateIndexed      = "indexed"
	NoteStateArchived     = "archived"
	NoteStateUploaded     = "uploaded"
	NoteStateUploadFailed = "upload_failed"
)

// Issue severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Vault describes a registered vault and its optional archive destination.
type Vault struct {
	Name          string
	RootPath      string
	ArchiveFolder string
	Destination   struct {
		Endpoint  string
		Bucket    string
		Folder    string
		AccessKey string
		SecretKey string
	}
}

// HasDestination reports whether an object-storage destination was configured
// for the vault. Archival upload is disabled without one.
func (v *Vault) HasDestination() bool {
	return v.Destination.Endpoint != "" && v.Destination.Bucket != ""
}

// Note is an indexed markdown file. Path is vault-relative and
// slash-separated regardless of platform.
type Note struct {
	Path           string
	Title          string
	H1             string
	FrontTitle     string
	Size           int64
	ModTime        time.Time
	Checksum       string
	HasFrontmatter bool
	FrontmatterOK  bool
	Tags           []string
	Status         string
	Created        string
	Updated        string
	Aliases        []string
	WordCount      int
	LinkCount      int
	TaskCount      int
	DoneTaskCount  int
	HeadingCount   int
	HeadingJumps   int
	State          string
}

// WikiLink is an Obsidian-style link from one note to a target inside the
// vault. Alias carries the display text from [[target|alias]]; IsEmbed marks
// ![[target]] transclusions.
type WikiLink struct {
	SourcePath string
	Target     string
	Alias      string
	IsEmbed    bool
}

// Issue is a single validation finding against a note.
type Issue struct {
	Path     string
	Rule     string
	Severity string
	Message  string
	Line     int
}

// CanvasInfo is an indexed canvas file with its health score.
type CanvasInfo struct {
	Path      string
	Size      int64
	ModTime   time.Time
	NodeCount int
	EdgeCount int
	Score     int
	Problems  []string
}

// Attachment is any vault file that is neither markdown nor canvas. Tracked
// so embed targets can be resolved.
type Attachment struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Assessment is a persisted quality assessment for a note at a particular
// content checksum.
type Assessment struct {
	Path         string
	Checksum     string
	Completeness float64
	Accuracy     float64
	Freshness    float64
	Consistency  float64
	Validity     float64
	Overall      float64
	AssessedAt   time.Time
}

// TemplateMetrics aggregates usage of a single note template.
type TemplateMetrics struct {
	Name     string
	Uses     int64
	LastUsed time.Time
}
