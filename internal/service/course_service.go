package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
	appErrors "github.com/campushub/ums-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type departmentReader interface {
	FindDepartment(ctx context.Context, id string) (*models.Department, error)
}

// CreateCourseRequest describes course creation payload. Department may
// arrive as a bare id or an embedded object.
type CreateCourseRequest struct {
	Name       string     `json:"name" validate:"required"`
	Code       string     `json:"code" validate:"required"`
	Department models.Ref `json:"department" validate:"required"`
	Status     string     `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// UpdateCourseRequest describes course update payload.
type UpdateCourseRequest struct {
	Name       string     `json:"name" validate:"required"`
	Code       string     `json:"code" validate:"required"`
	Department models.Ref `json:"department" validate:"required"`
	Status     string     `json:"status" validate:"required,oneof=ACTIVE INACTIVE"`
}

// CourseService orchestrates catalog course workflows.
type CourseService struct {
	repo        courseRepository
	departments departmentReader
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, departments departmentReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, departments: departments, cache: cache, validator: validate, logger: logger}
}

type cachedCourseList struct {
	Courses []models.Course `json:"courses"`
	Total   int             `json:"total"`
}

// List returns courses with pagination metadata. Filters compose with
// AND; zero values leave a dimension unfiltered.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	key := fmt.Sprintf("courses:list:%s:%s:%d:%s:%s:%d:%d:%s:%s",
		filter.DepartmentID, filter.SessionID, filter.Semester, filter.Status, filter.Search,
		filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)

	var cached cachedCourseList
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Courses, s.paginate(filter.Page, filter.PageSize, cached.Total), nil
	}

	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	if err := s.cache.Set(ctx, key, cachedCourseList{Courses: courses, Total: total}, 0); err != nil {
		s.logger.Debug("course list cache write skipped", zap.Error(err))
	}
	return courses, s.paginate(filter.Page, filter.PageSize, total), nil
}

func (s *CourseService) paginate(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

// Get returns a single course.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create registers a new course under a department.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	departmentID := req.Department.ResolveID()
	if departmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department is required")
	}
	if _, err := s.departments.FindDepartment(ctx, departmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}

	exists, err := s.repo.ExistsByCode(ctx, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already in use")
	}

	status := models.CourseStatus(req.Status)
	if status == "" {
		status = models.CourseActive
	}
	course := &models.Course{
		Name:         req.Name,
		Code:         req.Code,
		Status:       status,
		DepartmentID: departmentID,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.invalidateLists(ctx)
	return course, nil
}

// Update modifies a course.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	departmentID := req.Department.ResolveID()
	if departmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department is required")
	}
	if departmentID != course.DepartmentID {
		if _, err := s.departments.FindDepartment(ctx, departmentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
		}
	}

	exists, err := s.repo.ExistsByCode(ctx, req.Code, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already in use")
	}

	course.Name = req.Name
	course.Code = req.Code
	course.Status = models.CourseStatus(req.Status)
	course.DepartmentID = departmentID
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	s.invalidateLists(ctx)
	return course, nil
}

// Delete removes a course.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.invalidateLists(ctx)
	return nil
}

func (s *CourseService) invalidateLists(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "courses:list:*"); err != nil {
		s.logger.Warn("failed to invalidate course list cache", zap.Error(err))
	}
}
