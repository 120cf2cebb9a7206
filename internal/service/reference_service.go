package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
	appErrors "github.com/campushub/ums-api/pkg/errors"
)

type referenceRepository interface {
	ListDepartments(ctx context.Context) ([]models.Department, error)
	FindDepartment(ctx context.Context, id string) (*models.Department, error)
	ListSessions(ctx context.Context) ([]models.Session, error)
	FindSession(ctx context.Context, id string) (*models.Session, error)
	ListBatches(ctx context.Context, departmentID string) ([]models.Batch, error)
	FindBatch(ctx context.Context, id string) (*models.Batch, error)
}

// ReferenceService serves the slow-changing lookup collections that
// drive dependent filters: departments, sessions and batches.
type ReferenceService struct {
	repo   referenceRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewReferenceService constructs ReferenceService.
func NewReferenceService(repo referenceRepository, cache *CacheService, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{repo: repo, cache: cache, logger: logger}
}

// Departments lists all departments.
func (s *ReferenceService) Departments(ctx context.Context) ([]models.Department, error) {
	var cached []models.Department
	if hit, _ := s.cache.Get(ctx, "refs:departments", &cached); hit {
		return cached, nil
	}
	departments, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	_ = s.cache.Set(ctx, "refs:departments", departments, 0)
	return departments, nil
}

// Sessions lists all sessions.
func (s *ReferenceService) Sessions(ctx context.Context) ([]models.Session, error) {
	var cached []models.Session
	if hit, _ := s.cache.Get(ctx, "refs:sessions", &cached); hit {
		return cached, nil
	}
	sessions, err := s.repo.ListSessions(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	_ = s.cache.Set(ctx, "refs:sessions", sessions, 0)
	return sessions, nil
}

// Batches lists batches, optionally scoped to a department.
func (s *ReferenceService) Batches(ctx context.Context, departmentID string) ([]models.Batch, error) {
	batches, err := s.repo.ListBatches(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batches")
	}
	return batches, nil
}

// Batch returns one batch.
func (s *ReferenceService) Batch(ctx context.Context, id string) (*models.Batch, error) {
	batch, err := s.repo.FindBatch(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	return batch, nil
}
