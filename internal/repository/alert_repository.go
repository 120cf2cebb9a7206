package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/ums-api/internal/models"
)

// AlertRepository stores administrator notifications.
type AlertRepository struct {
	db *sqlx.DB
}

// NewAlertRepository constructs an AlertRepository.
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// ListActive returns undismissed alerts, newest first.
func (r *AlertRepository) ListActive(ctx context.Context) ([]models.Alert, error) {
	const query = `SELECT id, level, source, message, dismissed, created_at
		FROM alerts WHERE dismissed = FALSE ORDER BY created_at DESC`
	var alerts []models.Alert
	if err := r.db.SelectContext(ctx, &alerts, query); err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

// Create inserts an alert.
func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO alerts (id, level, source, message, dismissed, created_at)
		VALUES (:id, :level, :source, :message, :dismissed, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, alert); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

// Dismiss hides one alert.
func (r *AlertRepository) Dismiss(ctx context.Context, id string) error {
	const query = `UPDATE alerts SET dismissed = TRUE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("dismiss alert: %w", err)
	}
	return nil
}

// DismissAll hides every active alert.
func (r *AlertRepository) DismissAll(ctx context.Context) error {
	const query = `UPDATE alerts SET dismissed = TRUE WHERE dismissed = FALSE`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("dismiss all alerts: %w", err)
	}
	return nil
}
