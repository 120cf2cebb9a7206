package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/ums-api/internal/models"
)

// EnrollmentRepository manages student-to-session-course links.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Exists reports whether the student is already enrolled in the
// session course.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, sessionCourseID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND session_course_id = $2 LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, studentID, sessionCourseID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// Create inserts one enrollment link.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}

	const query = `INSERT INTO enrollments (id, student_id, session_course_id, enrolled_at)
		VALUES (:id, :student_id, :session_course_id, :enrolled_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// ListByStudent returns a student's enrollments, newest first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	const query = `SELECT id, student_id, session_course_id, enrolled_at
		FROM enrollments WHERE student_id = $1 ORDER BY enrolled_at DESC`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// ListBySessionCourse returns every enrollment of a session course.
func (r *EnrollmentRepository) ListBySessionCourse(ctx context.Context, sessionCourseID string) ([]models.Enrollment, error) {
	const query = `SELECT id, student_id, session_course_id, enrolled_at
		FROM enrollments WHERE session_course_id = $1 ORDER BY enrolled_at`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, sessionCourseID); err != nil {
		return nil, fmt.Errorf("list course enrollments: %w", err)
	}
	return enrollments, nil
}

// Delete removes one enrollment link.
func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM enrollments WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return nil
}
