package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
	appErrors "github.com/campushub/ums-api/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.CourseSchedule, int, error)
	FindByID(ctx context.Context, id string) (*models.CourseSchedule, error)
	Create(ctx context.Context, schedule *models.CourseSchedule) error
	Update(ctx context.Context, schedule *models.CourseSchedule) error
	Delete(ctx context.Context, id string) error
}

type scheduleSessionCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.SessionCourse, error)
}

type batchReader interface {
	FindBatch(ctx context.Context, id string) (*models.Batch, error)
}

type scheduleAccountReader interface {
	FindByID(ctx context.Context, accountType models.AccountType, id string) (*models.Account, error)
}

// ScheduleRequest places a session course on the timetable.
type ScheduleRequest struct {
	SessionCourse models.Ref `json:"session_course" validate:"required"`
	Batch         models.Ref `json:"batch" validate:"required"`
	Teacher       models.Ref `json:"teacher" validate:"required"`
	Classroom     models.Ref `json:"classroom"`
	DaysOfWeek    []string   `json:"days_of_week" validate:"required,min=1,dive,oneof=MON TUE WED THU FRI SAT SUN"`
	StartTime     string     `json:"start_time" validate:"required"`
	EndTime       string     `json:"end_time" validate:"required"`
	StartDate     time.Time  `json:"start_date" validate:"required"`
	EndDate       time.Time  `json:"end_date" validate:"required"`
	IsActive      *bool      `json:"is_active"`
}

// ScheduleService manages timetable entries.
type ScheduleService struct {
	repo           scheduleRepository
	sessionCourses scheduleSessionCourseReader
	batches        batchReader
	accounts       scheduleAccountReader
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(repo scheduleRepository, sessionCourses scheduleSessionCourseReader, batches batchReader, accounts scheduleAccountReader, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, sessionCourses: sessionCourses, batches: batches, accounts: accounts, validator: validate, logger: logger}
}

// List returns schedules with pagination metadata.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.CourseSchedule, *models.Pagination, error) {
	schedules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return schedules, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one schedule.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.CourseSchedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}

func (s *ScheduleService) validateRefs(ctx context.Context, req ScheduleRequest) error {
	if _, err := s.sessionCourses.FindByID(ctx, req.SessionCourse.ResolveID()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "session course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session course")
	}
	if _, err := s.batches.FindBatch(ctx, req.Batch.ResolveID()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	teacher, err := s.accounts.FindByID(ctx, models.AccountTeacher, req.Teacher.ResolveID())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if teacher.Deleted() {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "teacher account is deleted")
	}
	if req.EndDate.Before(req.StartDate) {
		return appErrors.Clone(appErrors.ErrValidation, "end date precedes start date")
	}
	if req.EndTime <= req.StartTime {
		return appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	return nil
}

// Create adds a timetable entry.
func (s *ScheduleService) Create(ctx context.Context, req ScheduleRequest) (*models.CourseSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if err := s.validateRefs(ctx, req); err != nil {
		return nil, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	schedule := &models.CourseSchedule{
		SessionCourseID: req.SessionCourse.ResolveID(),
		BatchID:         req.Batch.ResolveID(),
		TeacherID:       req.Teacher.ResolveID(),
		DaysOfWeek:      pq.StringArray(req.DaysOfWeek),
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		IsActive:        active,
	}
	if id := req.Classroom.ResolveID(); id != "" {
		schedule.ClassroomID = &id
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	return schedule, nil
}

// Update rewrites a timetable entry.
func (s *ScheduleService) Update(ctx context.Context, id string, req ScheduleRequest) (*models.CourseSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	schedule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateRefs(ctx, req); err != nil {
		return nil, err
	}

	schedule.SessionCourseID = req.SessionCourse.ResolveID()
	schedule.BatchID = req.Batch.ResolveID()
	schedule.TeacherID = req.Teacher.ResolveID()
	schedule.DaysOfWeek = pq.StringArray(req.DaysOfWeek)
	schedule.StartTime = req.StartTime
	schedule.EndTime = req.EndTime
	schedule.StartDate = req.StartDate
	schedule.EndDate = req.EndDate
	if req.IsActive != nil {
		schedule.IsActive = *req.IsActive
	}
	schedule.ClassroomID = nil
	if classroomID := req.Classroom.ResolveID(); classroomID != "" {
		schedule.ClassroomID = &classroomID
	}
	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	return schedule, nil
}

// Delete removes a timetable entry.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	return nil
}
