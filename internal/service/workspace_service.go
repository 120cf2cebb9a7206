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

type workspaceRepository interface {
	List(ctx context.Context, status models.WorkspaceStatus) ([]models.Workspace, error)
	FindByID(ctx context.Context, id string) (*models.Workspace, error)
	FindByPair(ctx context.Context, courseID, batchID string) (*models.Workspace, error)
	ListPending(ctx context.Context) ([]models.PendingWorkspace, error)
	Create(ctx context.Context, workspace *models.Workspace) error
	UpdateStatus(ctx context.Context, id string, status models.WorkspaceStatus) error
}

type workspaceChatCreator interface {
	CreateGroupForCourse(ctx context.Context, courseID, name string) error
}

// CreateWorkspaceRequest materializes a pending course-batch pairing.
type CreateWorkspaceRequest struct {
	Course models.Ref `json:"course" validate:"required"`
	Batch  models.Ref `json:"batch" validate:"required"`
	Title  string     `json:"title"`
}

// WorkspaceService materializes classroom workspaces from enrollment
// driven pairings.
type WorkspaceService struct {
	repo      workspaceRepository
	courses   courseReader
	batches   batchReader
	chat      workspaceChatCreator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWorkspaceService constructs WorkspaceService.
func NewWorkspaceService(repo workspaceRepository, courses courseReader, batches batchReader, chat workspaceChatCreator, validate *validator.Validate, logger *zap.Logger) *WorkspaceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkspaceService{repo: repo, courses: courses, batches: batches, chat: chat, validator: validate, logger: logger}
}

// List returns workspaces, optionally by status.
func (s *WorkspaceService) List(ctx context.Context, status models.WorkspaceStatus) ([]models.Workspace, error) {
	workspaces, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list workspaces")
	}
	return workspaces, nil
}

// Pending returns course-batch pairings with enrollments but no
// workspace yet.
func (s *WorkspaceService) Pending(ctx context.Context) ([]models.PendingWorkspace, error) {
	pending, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending workspaces")
	}
	return pending, nil
}

// Create materializes a workspace for one pairing. A pairing gets at
// most one workspace; a course chat group is opened alongside.
func (s *WorkspaceService) Create(ctx context.Context, req CreateWorkspaceRequest) (*models.Workspace, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid workspace payload")
	}
	courseID, batchID := req.Course.ResolveID(), req.Batch.ResolveID()
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	batch, err := s.batches.FindBatch(ctx, batchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}

	if _, err := s.repo.FindByPair(ctx, courseID, batchID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "workspace already exists for this pairing")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate workspace")
	}

	title := req.Title
	if title == "" {
		title = fmt.Sprintf("%s - %s", course.Name, batch.Name)
	}
	workspace := &models.Workspace{
		CourseID: courseID,
		BatchID:  batchID,
		Title:    title,
		Status:   models.WorkspaceActive,
	}
	if err := s.repo.Create(ctx, workspace); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create workspace")
	}

	if s.chat != nil {
		if err := s.chat.CreateGroupForCourse(ctx, courseID, title); err != nil {
			s.logger.Warn("failed to open course chat group", zap.String("course_id", courseID), zap.Error(err))
		}
	}
	return workspace, nil
}

// Archive closes a workspace.
func (s *WorkspaceService) Archive(ctx context.Context, id string) (*models.Workspace, error) {
	return s.setStatus(ctx, id, models.WorkspaceArchived)
}

// Reactivate reopens an archived workspace.
func (s *WorkspaceService) Reactivate(ctx context.Context, id string) (*models.Workspace, error) {
	return s.setStatus(ctx, id, models.WorkspaceActive)
}

func (s *WorkspaceService) setStatus(ctx context.Context, id string, status models.WorkspaceStatus) (*models.Workspace, error) {
	workspace, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "workspace not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workspace")
	}
	if workspace.Status == status {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "workspace already in requested state")
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update workspace status")
	}
	workspace.Status = status
	return workspace, nil
}
