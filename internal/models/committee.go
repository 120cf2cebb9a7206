package models

import "time"

// CommitteeStatus enumerates the grade approval pipeline states.
type CommitteeStatus string

const (
	CommitteeWithInstructor CommitteeStatus = "WITH_INSTRUCTOR"
	CommitteeSubmitted      CommitteeStatus = "SUBMITTED_TO_COMMITTEE"
	CommitteeApproved       CommitteeStatus = "COMMITTEE_APPROVED"
	CommitteePublished      CommitteeStatus = "PUBLISHED"
	CommitteeReturned       CommitteeStatus = "RETURNED_TO_TEACHER"
)

// CommitteeResult tracks grade approval for a course within a batch
// semester.
type CommitteeResult struct {
	ID              string          `db:"id" json:"id"`
	SessionCourseID string          `db:"session_course_id" json:"session_course_id"`
	CourseName      string          `db:"course_name" json:"course_name"`
	BatchID         string          `db:"batch_id" json:"batch_id"`
	Semester        int             `db:"semester" json:"semester"`
	Status          CommitteeStatus `db:"status" json:"status"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// CommitteeGroup is the {batch, semester} bucket the UI renders.
type CommitteeGroup struct {
	BatchID  string            `json:"batch_id"`
	Semester int               `json:"semester"`
	Results  []CommitteeResult `json:"results"`
}
