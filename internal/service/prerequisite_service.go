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

type prerequisiteRepository interface {
	List(ctx context.Context, courseID string) ([]models.PrerequisiteDetail, error)
	FindByID(ctx context.Context, id string) (*models.CoursePrerequisite, error)
	ExistsEdge(ctx context.Context, courseID, prerequisiteID, excludeID string) (bool, error)
	Create(ctx context.Context, edge *models.CoursePrerequisite) error
	Update(ctx context.Context, edge *models.CoursePrerequisite) error
	Delete(ctx context.Context, id string) error
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// PrerequisiteRequest carries both ends of a prerequisite edge. Either
// end may arrive as a bare id or an embedded object.
type PrerequisiteRequest struct {
	Course       models.Ref `json:"course" validate:"required"`
	Prerequisite models.Ref `json:"prerequisite" validate:"required"`
}

// PrerequisiteService manages directed prerequisite edges between
// courses.
type PrerequisiteService struct {
	repo      prerequisiteRepository
	courses   courseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPrerequisiteService constructs PrerequisiteService.
func NewPrerequisiteService(repo prerequisiteRepository, courses courseReader, validate *validator.Validate, logger *zap.Logger) *PrerequisiteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrerequisiteService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// List returns prerequisite edges, optionally for one course.
func (s *PrerequisiteService) List(ctx context.Context, courseID string) ([]models.PrerequisiteDetail, error) {
	edges, err := s.repo.List(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list prerequisites")
	}
	return edges, nil
}

// resolveEdge validates both endpoints before any write happens. A
// course can never be its own prerequisite.
func (s *PrerequisiteService) resolveEdge(ctx context.Context, req PrerequisiteRequest) (courseID, prerequisiteID string, err error) {
	courseID = req.Course.ResolveID()
	prerequisiteID = req.Prerequisite.ResolveID()
	if courseID == "" || prerequisiteID == "" {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "course and prerequisite are required")
	}
	if courseID == prerequisiteID {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "a course cannot be its own prerequisite")
	}
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if _, err := s.courses.FindByID(ctx, prerequisiteID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", appErrors.Clone(appErrors.ErrNotFound, "prerequisite course not found")
		}
		return "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisite course")
	}
	return courseID, prerequisiteID, nil
}

// Create adds a prerequisite edge.
func (s *PrerequisiteService) Create(ctx context.Context, req PrerequisiteRequest) (*models.CoursePrerequisite, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid prerequisite payload")
	}
	courseID, prerequisiteID, err := s.resolveEdge(ctx, req)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsEdge(ctx, courseID, prerequisiteID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate prerequisite")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "prerequisite already defined")
	}

	edge := &models.CoursePrerequisite{CourseID: courseID, PrerequisiteID: prerequisiteID}
	if err := s.repo.Create(ctx, edge); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create prerequisite")
	}
	return edge, nil
}

// Update rewrites an existing prerequisite edge.
func (s *PrerequisiteService) Update(ctx context.Context, id string, req PrerequisiteRequest) (*models.CoursePrerequisite, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid prerequisite payload")
	}
	edge, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "prerequisite not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisite")
	}

	courseID, prerequisiteID, err := s.resolveEdge(ctx, req)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsEdge(ctx, courseID, prerequisiteID, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate prerequisite")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "prerequisite already defined")
	}

	edge.CourseID = courseID
	edge.PrerequisiteID = prerequisiteID
	if err := s.repo.Update(ctx, edge); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update prerequisite")
	}
	return edge, nil
}

// Delete removes a prerequisite edge.
func (s *PrerequisiteService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "prerequisite not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisite")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete prerequisite")
	}
	return nil
}
