package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
	appErrors "github.com/campushub/ums-api/pkg/errors"
)

type committeeRepository interface {
	List(ctx context.Context, batchID string) ([]models.CommitteeResult, error)
	FindByID(ctx context.Context, id string) (*models.CommitteeResult, error)
	Create(ctx context.Context, result *models.CommitteeResult) error
	UpdateStatus(ctx context.Context, id string, status models.CommitteeStatus) error
}

// committeeTransitions encodes the legal moves of the grade approval
// pipeline. Anything absent here is rejected.
var committeeTransitions = map[models.CommitteeStatus][]models.CommitteeStatus{
	models.CommitteeWithInstructor: {models.CommitteeSubmitted},
	models.CommitteeSubmitted:      {models.CommitteeApproved, models.CommitteeReturned},
	models.CommitteeApproved:       {models.CommitteePublished},
	models.CommitteeReturned:       {models.CommitteeSubmitted},
}

// CommitteeService runs the grade approval workflow. A nil alert
// service disables the notification side effects.
type CommitteeService struct {
	repo   committeeRepository
	alerts *AlertService
	logger *zap.Logger
}

// NewCommitteeService constructs CommitteeService.
func NewCommitteeService(repo committeeRepository, alerts *AlertService, logger *zap.Logger) *CommitteeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommitteeService{repo: repo, alerts: alerts, logger: logger}
}

// List groups committee results by {batch, semester}, the shape the
// review board renders.
func (s *CommitteeService) List(ctx context.Context, batchID string) ([]models.CommitteeGroup, error) {
	results, err := s.repo.List(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list committee results")
	}

	var groups []models.CommitteeGroup
	index := make(map[string]int)
	for _, result := range results {
		key := fmt.Sprintf("%s:%d", result.BatchID, result.Semester)
		i, ok := index[key]
		if !ok {
			groups = append(groups, models.CommitteeGroup{BatchID: result.BatchID, Semester: result.Semester})
			i = len(groups) - 1
			index[key] = i
		}
		groups[i].Results = append(groups[i].Results, result)
	}
	return groups, nil
}

// Transition moves one result along the pipeline. Illegal moves are
// rejected with the allowed targets untouched.
func (s *CommitteeService) Transition(ctx context.Context, id string, target models.CommitteeStatus) (*models.CommitteeResult, error) {
	result, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "committee result not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load committee result")
	}

	allowed := false
	for _, next := range committeeTransitions[result.Status] {
		if next == target {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "illegal status transition")
	}

	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update committee status")
	}
	s.logger.Info("committee result moved",
		zap.String("id", id),
		zap.String("from", string(result.Status)),
		zap.String("to", string(target)))
	result.Status = target
	s.notify(ctx, result)
	return result, nil
}

// notify raises an alert for the transitions people wait on: results
// going public and results bounced back to the teacher.
func (s *CommitteeService) notify(ctx context.Context, result *models.CommitteeResult) {
	if s.alerts == nil {
		return
	}
	switch result.Status {
	case models.CommitteePublished:
		_ = s.alerts.Raise(ctx, models.AlertInfo, "committee",
			fmt.Sprintf("results for %s semester %d published", result.BatchID, result.Semester))
	case models.CommitteeReturned:
		_ = s.alerts.Raise(ctx, models.AlertWarning, "committee",
			fmt.Sprintf("results for %s semester %d returned to teacher", result.BatchID, result.Semester))
	}
}
