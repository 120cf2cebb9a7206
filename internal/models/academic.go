package models

import (
	"time"

	"github.com/lib/pq"
)

// Department groups courses and batches.
type Department struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Session is an academic term container under which courses run.
type Session struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Batch is a cohort progressing together through semesters.
type Batch struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	StartYear    int       `db:"start_year" json:"start_year"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// CourseStatus enumerates course lifecycle states.
type CourseStatus string

const (
	CourseActive   CourseStatus = "ACTIVE"
	CourseInactive CourseStatus = "INACTIVE"
)

// Course is a catalog entry owned by a department.
type Course struct {
	ID           string       `db:"id" json:"id"`
	Name         string       `db:"name" json:"name"`
	Code         string       `db:"code" json:"code"`
	Status       CourseStatus `db:"status" json:"status"`
	DepartmentID string       `db:"department_id" json:"department_id"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// CourseFilter composes list filters; zero values mean no filter.
type CourseFilter struct {
	DepartmentID string
	SessionID    string
	Semester     int
	Status       string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// CoursePrerequisite is a directed edge between two courses.
type CoursePrerequisite struct {
	ID             string    `db:"id" json:"id"`
	CourseID       string    `db:"course_id" json:"course_id"`
	PrerequisiteID string    `db:"prerequisite_id" json:"prerequisite_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// PrerequisiteDetail joins course names for display.
type PrerequisiteDetail struct {
	CoursePrerequisite
	CourseName       string `db:"course_name" json:"course_name"`
	PrerequisiteName string `db:"prerequisite_name" json:"prerequisite_name"`
}

// SessionCourse offers a course within a session for a department
// semester.
type SessionCourse struct {
	ID           string    `db:"id" json:"id"`
	SessionID    string    `db:"session_id" json:"session_id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	Semester     int       `db:"semester" json:"semester"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// SessionCourseFilter narrows session course lists.
type SessionCourseFilter struct {
	SessionID    string
	DepartmentID string
	Semester     int
	CourseID     string
}

// SyncResult summarises a bulk set-replace of session courses.
type SyncResult struct {
	Created int `json:"created"`
	Removed int `json:"removed"`
	Kept    int `json:"kept"`
}

// CourseSchedule places a session course on the timetable.
type CourseSchedule struct {
	ID              string         `db:"id" json:"id"`
	SessionCourseID string         `db:"session_course_id" json:"session_course_id"`
	BatchID         string         `db:"batch_id" json:"batch_id"`
	TeacherID       string         `db:"teacher_id" json:"teacher_id"`
	ClassroomID     *string        `db:"classroom_id" json:"classroom_id,omitempty"`
	DaysOfWeek      pq.StringArray `db:"days_of_week" json:"days_of_week"`
	StartTime       string         `db:"start_time" json:"start_time"`
	EndTime         string         `db:"end_time" json:"end_time"`
	StartDate       time.Time      `db:"start_date" json:"start_date"`
	EndDate         time.Time      `db:"end_date" json:"end_date"`
	IsActive        bool           `db:"is_active" json:"is_active"`
	ProposalID      *string        `db:"proposal_id" json:"proposal_id,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// ScheduleFilter narrows schedule lists.
type ScheduleFilter struct {
	BatchID   string
	TeacherID string
	SessionID string
	Active    *bool
	Page      int
	PageSize  int
}
