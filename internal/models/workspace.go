package models

import "time"

// WorkspaceStatus enumerates classroom workspace states.
type WorkspaceStatus string

const (
	WorkspaceActive   WorkspaceStatus = "ACTIVE"
	WorkspaceArchived WorkspaceStatus = "ARCHIVED"
)

// Workspace is a per-course-per-batch classroom instance created on
// demand from a pending course-batch pairing.
type Workspace struct {
	ID        string          `db:"id" json:"id"`
	CourseID  string          `db:"course_id" json:"course_id"`
	BatchID   string          `db:"batch_id" json:"batch_id"`
	Title     string          `db:"title" json:"title"`
	Status    WorkspaceStatus `db:"status" json:"status"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// PendingWorkspace is a scheduled course-batch pairing with no
// workspace yet.
type PendingWorkspace struct {
	CourseID   string `db:"course_id" json:"course_id"`
	CourseName string `db:"course_name" json:"course_name"`
	BatchID    string `db:"batch_id" json:"batch_id"`
	BatchName  string `db:"batch_name" json:"batch_name"`
}
