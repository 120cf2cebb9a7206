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

type sessionCourseRepository interface {
	List(ctx context.Context, filter models.SessionCourseFilter) ([]models.SessionCourse, error)
	FindByID(ctx context.Context, id string) (*models.SessionCourse, error)
	Create(ctx context.Context, record *models.SessionCourse) error
	Delete(ctx context.Context, id string) error
	Sync(ctx context.Context, sessionID, departmentID string, semester int, courseIDs []string) (*models.SyncResult, error)
}

type sessionReader interface {
	FindSession(ctx context.Context, id string) (*models.Session, error)
	FindDepartment(ctx context.Context, id string) (*models.Department, error)
}

// CreateSessionCourseRequest offers one course within a session.
type CreateSessionCourseRequest struct {
	Session    models.Ref `json:"session" validate:"required"`
	Course     models.Ref `json:"course" validate:"required"`
	Department models.Ref `json:"department" validate:"required"`
	Semester   int        `json:"semester" validate:"required,min=1,max=12"`
}

// SyncSessionCoursesRequest replaces the offered course set for a
// {session, department, semester} scope.
type SyncSessionCoursesRequest struct {
	Session    models.Ref   `json:"session" validate:"required"`
	Department models.Ref   `json:"department" validate:"required"`
	Semester   int          `json:"semester" validate:"required,min=1,max=12"`
	Courses    []models.Ref `json:"courses" validate:"required"`
}

// SessionCourseService manages course offerings per session.
type SessionCourseService struct {
	repo      sessionCourseRepository
	refs      sessionReader
	courses   courseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionCourseService constructs SessionCourseService.
func NewSessionCourseService(repo sessionCourseRepository, refs sessionReader, courses courseReader, validate *validator.Validate, logger *zap.Logger) *SessionCourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionCourseService{repo: repo, refs: refs, courses: courses, validator: validate, logger: logger}
}

// List returns session courses matching the filter.
func (s *SessionCourseService) List(ctx context.Context, filter models.SessionCourseFilter) ([]models.SessionCourse, error) {
	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list session courses")
	}
	return records, nil
}

// Create offers a course in a session.
func (s *SessionCourseService) Create(ctx context.Context, req CreateSessionCourseRequest) (*models.SessionCourse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session course payload")
	}
	sessionID, departmentID := req.Session.ResolveID(), req.Department.ResolveID()
	courseID := req.Course.ResolveID()
	if sessionID == "" || departmentID == "" || courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session, department and course are required")
	}

	if _, err := s.refs.FindSession(ctx, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if _, err := s.refs.FindDepartment(ctx, departmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.Status != models.CourseActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course is inactive")
	}

	existing, err := s.repo.List(ctx, models.SessionCourseFilter{SessionID: sessionID, DepartmentID: departmentID, Semester: req.Semester, CourseID: courseID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate session course")
	}
	if len(existing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course already offered in this scope")
	}

	record := &models.SessionCourse{
		SessionID:    sessionID,
		CourseID:     courseID,
		DepartmentID: departmentID,
		Semester:     req.Semester,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session course")
	}
	return record, nil
}

// Sync replaces the offered course set for a scope. Existing offerings
// outside the desired set are removed, missing ones created, the rest
// left untouched.
func (s *SessionCourseService) Sync(ctx context.Context, req SyncSessionCoursesRequest) (*models.SyncResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sync payload")
	}
	sessionID, departmentID := req.Session.ResolveID(), req.Department.ResolveID()
	if sessionID == "" || departmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session and department are required")
	}

	if _, err := s.refs.FindSession(ctx, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	courseIDs := make([]string, 0, len(req.Courses))
	seen := make(map[string]struct{}, len(req.Courses))
	for _, ref := range req.Courses {
		id := ref.ResolveID()
		if id == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "course reference missing id")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, err := s.courses.FindByID(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found: "+id)
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		courseIDs = append(courseIDs, id)
	}

	result, err := s.repo.Sync(ctx, sessionID, departmentID, req.Semester, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sync session courses")
	}
	s.logger.Info("session courses synced",
		zap.String("session_id", sessionID),
		zap.String("department_id", departmentID),
		zap.Int("semester", req.Semester),
		zap.Int("created", result.Created),
		zap.Int("removed", result.Removed),
		zap.Int("kept", result.Kept))
	return result, nil
}

// Delete removes one offering.
func (s *SessionCourseService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "session course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session course")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session course")
	}
	return nil
}
