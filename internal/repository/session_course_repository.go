package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/ums-api/internal/models"
)

// SessionCourseRepository manages the session-course join table.
type SessionCourseRepository struct {
	db *sqlx.DB
}

// NewSessionCourseRepository constructs a SessionCourseRepository.
func NewSessionCourseRepository(db *sqlx.DB) *SessionCourseRepository {
	return &SessionCourseRepository{db: db}
}

const sessionCourseColumns = "id, session_id, course_id, department_id, semester, created_at"

// List returns session courses matching the composed filter.
func (r *SessionCourseRepository) List(ctx context.Context, filter models.SessionCourseFilter) ([]models.SessionCourse, error) {
	query := "SELECT " + sessionCourseColumns + " FROM session_courses WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SessionID != "" {
		conditions = append(conditions, fmt.Sprintf("session_id = $%d", len(args)+1))
		args = append(args, filter.SessionID)
	}
	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.Semester > 0 {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY semester, created_at"

	var records []models.SessionCourse
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list session courses: %w", err)
	}
	return records, nil
}

// FindByID fetches one session course.
func (r *SessionCourseRepository) FindByID(ctx context.Context, id string) (*models.SessionCourse, error) {
	query := "SELECT " + sessionCourseColumns + " FROM session_courses WHERE id = $1"
	var record models.SessionCourse
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a new session course.
func (r *SessionCourseRepository) Create(ctx context.Context, record *models.SessionCourse) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO session_courses (id, session_id, course_id, department_id, semester, created_at)
		VALUES (:id, :session_id, :course_id, :department_id, :semester, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create session course: %w", err)
	}
	return nil
}

// Delete removes a session course.
func (r *SessionCourseRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM session_courses WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete session course: %w", err)
	}
	return nil
}

// Sync replaces the course set for {session, department, semester} in
// one transaction: courses missing from the desired set are created,
// extra rows removed, existing rows untouched.
func (r *SessionCourseRepository) Sync(ctx context.Context, sessionID, departmentID string, semester int, courseIDs []string) (*models.SyncResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin sync: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var existing []models.SessionCourse
	const selectQuery = `SELECT ` + sessionCourseColumns + ` FROM session_courses
		WHERE session_id = $1 AND department_id = $2 AND semester = $3 FOR UPDATE`
	if err := tx.SelectContext(ctx, &existing, selectQuery, sessionID, departmentID, semester); err != nil {
		return nil, fmt.Errorf("load existing session courses: %w", err)
	}

	desired := make(map[string]struct{}, len(courseIDs))
	for _, id := range courseIDs {
		desired[id] = struct{}{}
	}

	result := &models.SyncResult{}
	now := time.Now().UTC()

	current := make(map[string]struct{}, len(existing))
	for _, record := range existing {
		current[record.CourseID] = struct{}{}
		if _, keep := desired[record.CourseID]; keep {
			result.Kept++
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM session_courses WHERE id = $1`, record.ID); err != nil {
			return nil, fmt.Errorf("remove session course %s: %w", record.ID, err)
		}
		result.Removed++
	}

	const insertQuery = `INSERT INTO session_courses (id, session_id, course_id, department_id, semester, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, courseID := range courseIDs {
		if _, exists := current[courseID]; exists {
			continue
		}
		if _, err := tx.ExecContext(ctx, insertQuery, uuid.NewString(), sessionID, courseID, departmentID, semester, now); err != nil {
			return nil, fmt.Errorf("insert session course %s: %w", courseID, err)
		}
		result.Created++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit sync: %w", err)
	}
	return result, nil
}

// ListForBatchSemester returns the session courses an enrollment
// fan-out targets: the batch's department crossed with the requested
// session and semester.
func (r *SessionCourseRepository) ListForBatchSemester(ctx context.Context, batchID, sessionID string, semester int) ([]models.SessionCourse, error) {
	const query = `SELECT sc.id, sc.session_id, sc.course_id, sc.department_id, sc.semester, sc.created_at
		FROM session_courses sc
		JOIN batches b ON b.department_id = sc.department_id
		WHERE b.id = $1 AND sc.session_id = $2 AND sc.semester = $3
		ORDER BY sc.created_at`
	var records []models.SessionCourse
	if err := r.db.SelectContext(ctx, &records, query, batchID, sessionID, semester); err != nil {
		return nil, fmt.Errorf("list batch semester courses: %w", err)
	}
	return records, nil
}
