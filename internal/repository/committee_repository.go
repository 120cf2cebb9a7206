package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/ums-api/internal/models"
)

// CommitteeRepository tracks grade approval records.
type CommitteeRepository struct {
	db *sqlx.DB
}

// NewCommitteeRepository constructs a CommitteeRepository.
func NewCommitteeRepository(db *sqlx.DB) *CommitteeRepository {
	return &CommitteeRepository{db: db}
}

const committeeColumns = `cr.id, cr.session_course_id, c.name AS course_name, cr.batch_id, cr.semester, cr.status, cr.updated_at`

// List returns committee results ordered for {batch, semester}
// grouping, optionally narrowed to one batch.
func (r *CommitteeRepository) List(ctx context.Context, batchID string) ([]models.CommitteeResult, error) {
	query := `SELECT ` + committeeColumns + `
		FROM committee_results cr
		JOIN session_courses sc ON sc.id = cr.session_course_id
		JOIN courses c ON c.id = sc.course_id`
	var args []interface{}
	if batchID != "" {
		query += " WHERE cr.batch_id = $1"
		args = append(args, batchID)
	}
	query += " ORDER BY cr.batch_id, cr.semester, c.name"

	var results []models.CommitteeResult
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("list committee results: %w", err)
	}
	return results, nil
}

// FindByID fetches one committee result.
func (r *CommitteeRepository) FindByID(ctx context.Context, id string) (*models.CommitteeResult, error) {
	query := `SELECT ` + committeeColumns + `
		FROM committee_results cr
		JOIN session_courses sc ON sc.id = cr.session_course_id
		JOIN courses c ON c.id = sc.course_id
		WHERE cr.id = $1`
	var result models.CommitteeResult
	if err := r.db.GetContext(ctx, &result, query, id); err != nil {
		return nil, err
	}
	return &result, nil
}

// Create inserts a committee result record.
func (r *CommitteeRepository) Create(ctx context.Context, result *models.CommitteeResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	result.UpdatedAt = time.Now().UTC()

	const query = `INSERT INTO committee_results (id, session_course_id, batch_id, semester, status, updated_at)
		VALUES (:id, :session_course_id, :batch_id, :semester, :status, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("create committee result: %w", err)
	}
	return nil
}

// UpdateStatus moves a result through the approval pipeline.
func (r *CommitteeRepository) UpdateStatus(ctx context.Context, id string, status models.CommitteeStatus) error {
	const query = `UPDATE committee_results SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update committee status: %w", err)
	}
	return nil
}
