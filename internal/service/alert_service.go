package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
	appErrors "github.com/campushub/ums-api/pkg/errors"
)

type alertRepository interface {
	ListActive(ctx context.Context) ([]models.Alert, error)
	Create(ctx context.Context, alert *models.Alert) error
	Dismiss(ctx context.Context, id string) error
	DismissAll(ctx context.Context) error
}

// AlertService surfaces process-wide notifications to administrators.
// Consumers refresh the active list, dismiss one entry, or dismiss
// everything at once.
type AlertService struct {
	repo   alertRepository
	logger *zap.Logger
}

// NewAlertService constructs AlertService.
func NewAlertService(repo alertRepository, logger *zap.Logger) *AlertService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertService{repo: repo, logger: logger}
}

// Refresh returns undismissed alerts, newest first.
func (s *AlertService) Refresh(ctx context.Context) ([]models.Alert, error) {
	alerts, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list alerts")
	}
	return alerts, nil
}

// Raise records a new alert.
func (s *AlertService) Raise(ctx context.Context, level models.AlertLevel, source, message string) error {
	alert := &models.Alert{Level: level, Source: source, Message: message}
	if err := s.repo.Create(ctx, alert); err != nil {
		s.logger.Warn("failed to raise alert", zap.String("source", source), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to raise alert")
	}
	return nil
}

// Dismiss hides one alert.
func (s *AlertService) Dismiss(ctx context.Context, id string) error {
	if err := s.repo.Dismiss(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to dismiss alert")
	}
	return nil
}

// DismissAll hides every active alert.
func (s *AlertService) DismissAll(ctx context.Context) error {
	if err := s.repo.DismissAll(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to dismiss alerts")
	}
	return nil
}
