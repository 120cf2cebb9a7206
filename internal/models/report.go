package models

import "time"

// ReportFormat enumerates export output formats.
type ReportFormat string

const (
	ReportCSV ReportFormat = "csv"
	ReportPDF ReportFormat = "pdf"
)

// ReportState enumerates export job states.
type ReportState string

const (
	ReportQueued    ReportState = "QUEUED"
	ReportCompleted ReportState = "COMPLETED"
	ReportFailed    ReportState = "FAILED"
)

// ReportJob tracks an asynchronous export.
type ReportJob struct {
	ID          string       `db:"id" json:"id"`
	Type        string       `db:"type" json:"type"`
	Format      ReportFormat `db:"format" json:"format"`
	State       ReportState  `db:"state" json:"state"`
	FilePath    *string      `db:"file_path" json:"file_path,omitempty"`
	Error       *string      `db:"error" json:"error,omitempty"`
	RequestedBy string       `db:"requested_by" json:"requested_by"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	CompletedAt *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
}
