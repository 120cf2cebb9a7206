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

// QuizRepository manages quizzes and student attempts.
type QuizRepository struct {
	db *sqlx.DB
}

// NewQuizRepository constructs a QuizRepository.
func NewQuizRepository(db *sqlx.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

const quizColumns = "id, session_course_id, title, max_attempts, duration_minutes, question_count, created_at"

// ListBySessionCourse returns the quizzes of a session course.
func (r *QuizRepository) ListBySessionCourse(ctx context.Context, sessionCourseID string) ([]models.Quiz, error) {
	query := "SELECT " + quizColumns + " FROM quizzes WHERE session_course_id = $1 ORDER BY created_at"
	var quizzes []models.Quiz
	if err := r.db.SelectContext(ctx, &quizzes, query, sessionCourseID); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

// FindByID fetches a quiz by ID.
func (r *QuizRepository) FindByID(ctx context.Context, id string) (*models.Quiz, error) {
	query := "SELECT " + quizColumns + " FROM quizzes WHERE id = $1"
	var quiz models.Quiz
	if err := r.db.GetContext(ctx, &quiz, query, id); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// Create inserts a quiz.
func (r *QuizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO quizzes (id, session_course_id, title, max_attempts, duration_minutes, question_count, created_at)
		VALUES (:id, :session_course_id, :title, :max_attempts, :duration_minutes, :question_count, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, quiz); err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	return nil
}

const attemptColumns = "id, quiz_id, student_id, status, percentage, started_at, submitted_at"

// ListAttempts returns a student's attempts for a quiz, oldest first.
func (r *QuizRepository) ListAttempts(ctx context.Context, quizID, studentID string) ([]models.QuizAttempt, error) {
	query := "SELECT " + attemptColumns + " FROM quiz_attempts WHERE quiz_id = $1 AND student_id = $2 ORDER BY started_at"
	var attempts []models.QuizAttempt
	if err := r.db.SelectContext(ctx, &attempts, query, quizID, studentID); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}

// CountAttempts returns how many attempts a student has consumed.
// In-progress attempts count against the cap.
func (r *QuizRepository) CountAttempts(ctx context.Context, quizID, studentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM quiz_attempts WHERE quiz_id = $1 AND student_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, quizID, studentID); err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return count, nil
}

// FindAttempt fetches one attempt.
func (r *QuizRepository) FindAttempt(ctx context.Context, id string) (*models.QuizAttempt, error) {
	query := "SELECT " + attemptColumns + " FROM quiz_attempts WHERE id = $1"
	var attempt models.QuizAttempt
	if err := r.db.GetContext(ctx, &attempt, query, id); err != nil {
		return nil, err
	}
	return &attempt, nil
}

// FindInProgress returns the student's open attempt for a quiz, if any.
func (r *QuizRepository) FindInProgress(ctx context.Context, quizID, studentID string) (*models.QuizAttempt, error) {
	query := "SELECT " + attemptColumns + " FROM quiz_attempts WHERE quiz_id = $1 AND student_id = $2 AND status = $3"
	var attempt models.QuizAttempt
	if err := r.db.GetContext(ctx, &attempt, query, quizID, studentID, models.AttemptInProgress); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find in-progress attempt: %w", err)
	}
	return &attempt, nil
}

// CreateAttempt inserts a new attempt.
func (r *QuizRepository) CreateAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.StartedAt.IsZero() {
		attempt.StartedAt = time.Now().UTC()
	}

	const query = `INSERT INTO quiz_attempts (id, quiz_id, student_id, status, percentage, started_at, submitted_at)
		VALUES (:id, :quiz_id, :student_id, :status, :percentage, :started_at, :submitted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, attempt); err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

// UpdateAttempt records submission or grading on an attempt.
func (r *QuizRepository) UpdateAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	const query = `UPDATE quiz_attempts SET status = :status, percentage = :percentage,
		submitted_at = :submitted_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, attempt); err != nil {
		return fmt.Errorf("update attempt: %w", err)
	}
	return nil
}

// TimeOutExpired closes in-progress attempts whose quiz duration has
// elapsed and returns how many were closed.
func (r *QuizRepository) TimeOutExpired(ctx context.Context) (int, error) {
	const query = `UPDATE quiz_attempts a SET status = $1, submitted_at = $2
		FROM quizzes q
		WHERE q.id = a.quiz_id AND a.status = $3
		AND a.started_at + (q.duration_minutes * INTERVAL '1 minute') < $2`
	res, err := r.db.ExecContext(ctx, query, models.AttemptTimedOut, time.Now().UTC(), models.AttemptInProgress)
	if err != nil {
		return 0, fmt.Errorf("time out attempts: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("time out rows: %w", err)
	}
	return int(affected), nil
}
