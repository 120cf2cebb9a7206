package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
	appErrors "github.com/campushub/ums-api/pkg/errors"
)

type enrollmentRepository interface {
	Exists(ctx context.Context, studentID, sessionCourseID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
}

type enrollmentCourseLister interface {
	ListForBatchSemester(ctx context.Context, batchID, sessionID string, semester int) ([]models.SessionCourse, error)
}

type enrollmentStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByBatch(ctx context.Context, batchID, search string) ([]models.Student, error)
}

// EnrollBatchRequest fans one batch out over a session semester's
// offered courses.
type EnrollBatchRequest struct {
	Batch    models.Ref `json:"batch" validate:"required"`
	Session  models.Ref `json:"session" validate:"required"`
	Semester int        `json:"semester" validate:"required,min=1,max=12"`
}

// EnrollStudentRequest fans one student out over a batch semester's
// offered courses.
type EnrollStudentRequest struct {
	Student  models.Ref `json:"student" validate:"required"`
	Batch    models.Ref `json:"batch" validate:"required"`
	Session  models.Ref `json:"session" validate:"required"`
	Semester int        `json:"semester" validate:"required,min=1,max=12"`
}

// EnrollmentService orchestrates enrollment workflows, including the
// batch-semester fan-out.
type EnrollmentService struct {
	repo           enrollmentRepository
	sessionCourses enrollmentCourseLister
	students       enrollmentStudentReader
	refs           sessionReader
	metrics        *MetricsService
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, sessionCourses enrollmentCourseLister, students enrollmentStudentReader, refs sessionReader, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, sessionCourses: sessionCourses, students: students, refs: refs, metrics: metrics, validator: validate, logger: logger}
}

// EnrollBatch enrolls every active student of a batch in every course
// offered for the batch's department in {session, semester}. Existing
// enrollments are skipped, per-student failures recorded; the fan-out
// never aborts midway.
func (s *EnrollmentService) EnrollBatch(ctx context.Context, req EnrollBatchRequest) (*models.EnrollResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	batchID, sessionID := req.Batch.ResolveID(), req.Session.ResolveID()
	if batchID == "" || sessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "batch and session are required")
	}
	if _, err := s.refs.FindSession(ctx, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	courses, err := s.sessionCourses.ListForBatchSemester(ctx, batchID, sessionID, req.Semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offered courses")
	}
	if len(courses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no courses offered for this batch semester")
	}

	students, err := s.students.ListByBatch(ctx, batchID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch students")
	}

	result := &models.EnrollResult{}
	for _, student := range students {
		if !student.Active {
			result.Skipped++
			s.record("skipped")
			continue
		}
		s.enrollAcross(ctx, student.ID, courses, result)
	}
	result.Success = result.Failed == 0

	s.logger.Info("batch enrollment fan-out finished",
		zap.String("batch_id", batchID),
		zap.String("session_id", sessionID),
		zap.Int("semester", req.Semester),
		zap.Int("enrolled", result.Enrolled),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	return result, nil
}

// enrollAcross links one student to each course, counting outcomes
// without aborting midway.
func (s *EnrollmentService) enrollAcross(ctx context.Context, studentID string, courses []models.SessionCourse, result *models.EnrollResult) {
	for _, course := range courses {
		exists, err := s.repo.Exists(ctx, studentID, course.ID)
		if err != nil {
			result.Failed++
			s.record("failed")
			s.logger.Warn("enrollment check failed",
				zap.String("student_id", studentID),
				zap.String("session_course_id", course.ID),
				zap.Error(err))
			continue
		}
		if exists {
			result.Skipped++
			s.record("skipped")
			continue
		}
		enrollment := &models.Enrollment{StudentID: studentID, SessionCourseID: course.ID}
		if err := s.repo.Create(ctx, enrollment); err != nil {
			result.Failed++
			s.record("failed")
			s.logger.Warn("enrollment insert failed",
				zap.String("student_id", studentID),
				zap.String("session_course_id", course.ID),
				zap.Error(err))
			continue
		}
		result.Enrolled++
		s.record("enrolled")
	}
}

func (s *EnrollmentService) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordEnrollmentOutcome(outcome)
	}
}

// EnrollStudent enrolls one student in every course offered for the
// batch semester. Courses the student already holds count as skipped,
// so re-running the call changes nothing.
func (s *EnrollmentService) EnrollStudent(ctx context.Context, req EnrollStudentRequest) (*models.EnrollResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	studentID, batchID, sessionID := req.Student.ResolveID(), req.Batch.ResolveID(), req.Session.ResolveID()
	if studentID == "" || batchID == "" || sessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student, batch and session are required")
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
	if _, err := s.refs.FindSession(ctx, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	courses, err := s.sessionCourses.ListForBatchSemester(ctx, batchID, sessionID, req.Semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offered courses")
	}
	if len(courses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no courses offered for this batch semester")
	}

	result := &models.EnrollResult{}
	s.enrollAcross(ctx, studentID, courses, result)
	result.Success = result.Failed == 0

	s.logger.Info("student enrollment fan-out finished",
		zap.String("student_id", studentID),
		zap.String("batch_id", batchID),
		zap.String("session_id", sessionID),
		zap.Int("semester", req.Semester),
		zap.Int("enrolled", result.Enrolled),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	return result, nil
}

// BatchSemesterCourses lists the courses an enrollment fan-out for the
// given batch semester would cover.
func (s *EnrollmentService) BatchSemesterCourses(ctx context.Context, batchID, sessionID string, semester int) ([]models.SessionCourse, error) {
	if batchID == "" || sessionID == "" || semester < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "batch, session and semester are required")
	}
	courses, err := s.sessionCourses.ListForBatchSemester(ctx, batchID, sessionID, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offered courses")
	}
	return courses, nil
}

// ListByStudent returns a student's enrollments.
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	enrollments, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}
