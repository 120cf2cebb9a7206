package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/campushub/ums-api/internal/models"
)

// ReferenceRepository serves the small lookup collections the filter
// cascade depends on: departments, sessions and batches.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs a ReferenceRepository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// ListDepartments returns every department ordered by name.
func (r *ReferenceRepository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	const query = `SELECT id, name, code, created_at FROM departments ORDER BY name`
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, err
	}
	return departments, nil
}

// FindDepartment fetches one department by id.
func (r *ReferenceRepository) FindDepartment(ctx context.Context, id string) (*models.Department, error) {
	const query = `SELECT id, name, code, created_at FROM departments WHERE id = $1`
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, id); err != nil {
		return nil, err
	}
	return &department, nil
}

// ListSessions returns sessions newest first.
func (r *ReferenceRepository) ListSessions(ctx context.Context) ([]models.Session, error) {
	const query = `SELECT id, name, start_date, end_date, active, created_at FROM sessions ORDER BY start_date DESC`
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query); err != nil {
		return nil, err
	}
	return sessions, nil
}

// FindSession fetches one session by id.
func (r *ReferenceRepository) FindSession(ctx context.Context, id string) (*models.Session, error) {
	const query = `SELECT id, name, start_date, end_date, active, created_at FROM sessions WHERE id = $1`
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListBatches returns batches, optionally narrowed to a department.
func (r *ReferenceRepository) ListBatches(ctx context.Context, departmentID string) ([]models.Batch, error) {
	query := `SELECT id, name, department_id, start_year, created_at FROM batches`
	var args []interface{}
	if departmentID != "" {
		query += ` WHERE department_id = $1`
		args = append(args, departmentID)
	}
	query += ` ORDER BY start_year DESC, name`

	var batches []models.Batch
	if err := r.db.SelectContext(ctx, &batches, query, args...); err != nil {
		return nil, err
	}
	return batches, nil
}

// FindBatch fetches one batch by id.
func (r *ReferenceRepository) FindBatch(ctx context.Context, id string) (*models.Batch, error) {
	const query = `SELECT id, name, department_id, start_year, created_at FROM batches WHERE id = $1`
	var batch models.Batch
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		return nil, err
	}
	return &batch, nil
}
