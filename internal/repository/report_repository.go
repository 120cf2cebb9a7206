package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/ums-api/internal/models"
)

// ReportRepository tracks asynchronous export jobs.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs a ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = "id, type, format, state, file_path, error, requested_by, created_at, completed_at"

// Create inserts a queued report job.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.State == "" {
		job.State = models.ReportQueued
	}

	const query = `INSERT INTO report_jobs (id, type, format, state, file_path, error, requested_by, created_at, completed_at)
		VALUES (:id, :type, :format, :state, :file_path, :error, :requested_by, :created_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// FindByID fetches one report job.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.ReportJob, error) {
	query := "SELECT " + reportColumns + " FROM report_jobs WHERE id = $1"
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListByRequester returns a user's report jobs, newest first.
func (r *ReportRepository) ListByRequester(ctx context.Context, userID string) ([]models.ReportJob, error) {
	query := "SELECT " + reportColumns + " FROM report_jobs WHERE requested_by = $1 ORDER BY created_at DESC"
	var jobs []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobs, query, userID); err != nil {
		return nil, fmt.Errorf("list report jobs: %w", err)
	}
	return jobs, nil
}

// MarkCompleted records the output file of a finished job.
func (r *ReportRepository) MarkCompleted(ctx context.Context, id, filePath string) error {
	const query = `UPDATE report_jobs SET state = $2, file_path = $3, completed_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ReportCompleted, filePath, time.Now().UTC()); err != nil {
		return fmt.Errorf("complete report job: %w", err)
	}
	return nil
}

// MarkFailed records the failure reason of a job.
func (r *ReportRepository) MarkFailed(ctx context.Context, id, reason string) error {
	const query = `UPDATE report_jobs SET state = $2, error = $3, completed_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ReportFailed, reason, time.Now().UTC()); err != nil {
		return fmt.Errorf("fail report job: %w", err)
	}
	return nil
}
