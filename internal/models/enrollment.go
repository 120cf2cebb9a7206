package models

import "time"

// Enrollment links a student to a session course.
type Enrollment struct {
	ID              string    `db:"id" json:"id"`
	StudentID       string    `db:"student_id" json:"student_id"`
	SessionCourseID string    `db:"session_course_id" json:"session_course_id"`
	EnrolledAt      time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// EnrollResult summarises a batch-semester enrollment fan-out.
type EnrollResult struct {
	Success  bool `json:"success"`
	Enrolled int  `json:"enrolled"`
	Skipped  int  `json:"skipped"`
	Failed   int  `json:"failed"`
}
