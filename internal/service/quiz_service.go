package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
	appErrors "github.com/campushub/ums-api/pkg/errors"
)

type quizRepository interface {
	ListBySessionCourse(ctx context.Context, sessionCourseID string) ([]models.Quiz, error)
	FindByID(ctx context.Context, id string) (*models.Quiz, error)
	Create(ctx context.Context, quiz *models.Quiz) error
	ListAttempts(ctx context.Context, quizID, studentID string) ([]models.QuizAttempt, error)
	CountAttempts(ctx context.Context, quizID, studentID string) (int, error)
	FindAttempt(ctx context.Context, id string) (*models.QuizAttempt, error)
	FindInProgress(ctx context.Context, quizID, studentID string) (*models.QuizAttempt, error)
	CreateAttempt(ctx context.Context, attempt *models.QuizAttempt) error
	UpdateAttempt(ctx context.Context, attempt *models.QuizAttempt) error
	TimeOutExpired(ctx context.Context) (int, error)
}

// CreateQuizRequest configures an assessment for a session course.
type CreateQuizRequest struct {
	SessionCourse   models.Ref `json:"session_course" validate:"required"`
	Title           string     `json:"title" validate:"required"`
	MaxAttempts     int        `json:"max_attempts" validate:"required,min=1"`
	DurationMinutes int        `json:"duration_minutes" validate:"required,min=1"`
	QuestionCount   int        `json:"question_count" validate:"required,min=1"`
}

// SubmitAttemptRequest grades a submission as a percentage.
type SubmitAttemptRequest struct {
	Percentage float64 `json:"percentage" validate:"min=0,max=100"`
}

// QuizService manages quizzes and the per-student attempt lifecycle.
type QuizService struct {
	repo           quizRepository
	sessionCourses scheduleSessionCourseReader
	students       libraryStudentReader
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewQuizService constructs QuizService.
func NewQuizService(repo quizRepository, sessionCourses scheduleSessionCourseReader, students libraryStudentReader, validate *validator.Validate, logger *zap.Logger) *QuizService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuizService{repo: repo, sessionCourses: sessionCourses, students: students, validator: validate, logger: logger}
}

// Create registers a quiz under a session course.
func (s *QuizService) Create(ctx context.Context, req CreateQuizRequest) (*models.Quiz, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quiz payload")
	}
	sessionCourseID := req.SessionCourse.ResolveID()
	if _, err := s.sessionCourses.FindByID(ctx, sessionCourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session course")
	}

	quiz := &models.Quiz{
		SessionCourseID: sessionCourseID,
		Title:           req.Title,
		MaxAttempts:     req.MaxAttempts,
		DurationMinutes: req.DurationMinutes,
		QuestionCount:   req.QuestionCount,
	}
	if err := s.repo.Create(ctx, quiz); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create quiz")
	}
	return quiz, nil
}

// ListForStudent returns the quizzes of a session course annotated
// with the student's attempt budget and best score.
func (s *QuizService) ListForStudent(ctx context.Context, sessionCourseID, studentID string) ([]models.QuizSummary, error) {
	quizzes, err := s.repo.ListBySessionCourse(ctx, sessionCourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list quizzes")
	}

	summaries := make([]models.QuizSummary, 0, len(quizzes))
	for _, quiz := range quizzes {
		attempts, err := s.repo.ListAttempts(ctx, quiz.ID, studentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attempts")
		}
		summary := models.QuizSummary{Quiz: quiz, AttemptsUsed: len(attempts)}
		summary.AttemptsRemaining = quiz.MaxAttempts - len(attempts)
		if summary.AttemptsRemaining < 0 {
			summary.AttemptsRemaining = 0
		}
		for i := range attempts {
			attempt := attempts[i]
			if attempt.Status == models.AttemptInProgress {
				id := attempt.ID
				summary.InProgressID = &id
			}
			if attempt.Percentage != nil && (summary.BestScore == nil || *attempt.Percentage > *summary.BestScore) {
				summary.BestScore = attempt.Percentage
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// StartAttempt opens a new attempt for a student. Starting is refused
// while another attempt is open or the budget is spent.
func (s *QuizService) StartAttempt(ctx context.Context, quizID, studentID string) (*models.QuizAttempt, error) {
	quiz, err := s.repo.FindByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student inactive")
	}

	if open, err := s.repo.FindInProgress(ctx, quizID, studentID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check open attempts")
	} else if open != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an attempt is already in progress")
	}

	used, err := s.repo.CountAttempts(ctx, quizID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attempts")
	}
	if used >= quiz.MaxAttempts {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "attempt limit reached")
	}

	attempt := &models.QuizAttempt{
		QuizID:    quizID,
		StudentID: studentID,
		Status:    models.AttemptInProgress,
	}
	if err := s.repo.CreateAttempt(ctx, attempt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start attempt")
	}
	return attempt, nil
}

// SubmitAttempt closes an open attempt with its score. Submissions
// past the quiz duration are recorded as timed out without a score.
func (s *QuizService) SubmitAttempt(ctx context.Context, attemptID, studentID string, req SubmitAttemptRequest) (*models.QuizAttempt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	attempt, err := s.repo.FindAttempt(ctx, attemptID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attempt not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attempt")
	}
	if attempt.StudentID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "attempt belongs to another student")
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "attempt is not open")
	}

	quiz, err := s.repo.FindByID(ctx, attempt.QuizID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}

	now := time.Now().UTC()
	deadline := attempt.StartedAt.Add(time.Duration(quiz.DurationMinutes) * time.Minute)
	attempt.SubmittedAt = &now
	if now.After(deadline) {
		attempt.Status = models.AttemptTimedOut
		attempt.Percentage = nil
	} else {
		attempt.Status = models.AttemptGraded
		percentage := req.Percentage
		attempt.Percentage = &percentage
	}
	if err := s.repo.UpdateAttempt(ctx, attempt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit attempt")
	}
	return attempt, nil
}

// SweepExpired times out abandoned attempts whose window elapsed.
func (s *QuizService) SweepExpired(ctx context.Context) (int, error) {
	count, err := s.repo.TimeOutExpired(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sweep expired attempts")
	}
	if count > 0 {
		s.logger.Info("quiz attempts timed out", zap.Int("count", count))
	}
	return count, nil
}
