package models

// Stats represents vault index statistics
type Stats struct {
	TotalNotes     int64
	TotalSize      int64
	TotalCanvases  int64
	TotalLinks     int64
	Attachments    int64
	ErrorIssues    int64
	WarningIssues  int64
	InfoIssues     int64
	ArchivedNotes  int64
	ArchivedSize   int64
	AssessedNotes  int64
	AverageQuality float64
}
