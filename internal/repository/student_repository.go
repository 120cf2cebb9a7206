package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/campushub/ums-api/internal/models"
)

// StudentRepository reads learner records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = "id, full_name, email, registration_number, batch_id, active, created_at, updated_at"

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE id = $1"
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListByBatch returns students in a batch, optionally searched.
func (r *StudentRepository) ListByBatch(ctx context.Context, batchID, search string) ([]models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE batch_id = $1"
	args := []interface{}{batchID}
	if search != "" {
		query += " AND (LOWER(full_name) LIKE $2 OR LOWER(registration_number) LIKE $2)"
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	query += " ORDER BY full_name"

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}
