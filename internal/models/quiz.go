package models

import "time"

// Quiz configures an assessment for a session course.
type Quiz struct {
	ID              string    `db:"id" json:"id"`
	SessionCourseID string    `db:"session_course_id" json:"session_course_id"`
	Title           string    `db:"title" json:"title"`
	MaxAttempts     int       `db:"max_attempts" json:"max_attempts"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	QuestionCount   int       `db:"question_count" json:"question_count"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// AttemptStatus enumerates attempt lifecycle states.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
	AttemptGraded     AttemptStatus = "graded"
	AttemptTimedOut   AttemptStatus = "timed_out"
)

// QuizAttempt is one student run of a quiz.
type QuizAttempt struct {
	ID          string        `db:"id" json:"id"`
	QuizID      string        `db:"quiz_id" json:"quiz_id"`
	StudentID   string        `db:"student_id" json:"student_id"`
	Status      AttemptStatus `db:"status" json:"status"`
	Percentage  *float64      `db:"percentage" json:"percentage,omitempty"`
	StartedAt   time.Time     `db:"started_at" json:"started_at"`
	SubmittedAt *time.Time    `db:"submitted_at" json:"submitted_at,omitempty"`
}

// QuizSummary carries the derived per-student quiz view.
type QuizSummary struct {
	Quiz              Quiz     `json:"quiz"`
	AttemptsUsed      int      `json:"attempts_used"`
	AttemptsRemaining int      `json:"attempts_remaining"`
	BestScore         *float64 `json:"best_score,omitempty"`
	InProgressID      *string  `json:"in_progress_attempt_id,omitempty"`
}
