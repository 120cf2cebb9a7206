package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/ums-api/internal/models"
)

// PrerequisiteRepository manages course prerequisite edges.
type PrerequisiteRepository struct {
	db *sqlx.DB
}

// NewPrerequisiteRepository constructs a PrerequisiteRepository.
func NewPrerequisiteRepository(db *sqlx.DB) *PrerequisiteRepository {
	return &PrerequisiteRepository{db: db}
}

// List returns prerequisite edges with course names joined, optionally
// narrowed to one course.
func (r *PrerequisiteRepository) List(ctx context.Context, courseID string) ([]models.PrerequisiteDetail, error) {
	query := `SELECT p.id, p.course_id, p.prerequisite_id, p.created_at,
		c.name AS course_name, pr.name AS prerequisite_name
		FROM course_prerequisites p
		JOIN courses c ON c.id = p.course_id
		JOIN courses pr ON pr.id = p.prerequisite_id`
	var args []interface{}
	if courseID != "" {
		query += " WHERE p.course_id = $1"
		args = append(args, courseID)
	}
	query += " ORDER BY c.name, pr.name"

	var details []models.PrerequisiteDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, fmt.Errorf("list prerequisites: %w", err)
	}
	return details, nil
}

// FindByID fetches a prerequisite edge by ID.
func (r *PrerequisiteRepository) FindByID(ctx context.Context, id string) (*models.CoursePrerequisite, error) {
	const query = `SELECT id, course_id, prerequisite_id, created_at FROM course_prerequisites WHERE id = $1`
	var edge models.CoursePrerequisite
	if err := r.db.GetContext(ctx, &edge, query, id); err != nil {
		return nil, err
	}
	return &edge, nil
}

// ExistsEdge checks whether the directed edge already exists.
func (r *PrerequisiteRepository) ExistsEdge(ctx context.Context, courseID, prerequisiteID, excludeID string) (bool, error) {
	query := "SELECT 1 FROM course_prerequisites WHERE course_id = $1 AND prerequisite_id = $2"
	args := []interface{}{courseID, prerequisiteID}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check prerequisite edge: %w", err)
	}
	return true, nil
}

// Create inserts a new prerequisite edge.
func (r *PrerequisiteRepository) Create(ctx context.Context, edge *models.CoursePrerequisite) error {
	if edge.ID == "" {
		edge.ID = uuid.NewString()
	}
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO course_prerequisites (id, course_id, prerequisite_id, created_at)
		VALUES (:id, :course_id, :prerequisite_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, edge); err != nil {
		return fmt.Errorf("create prerequisite: %w", err)
	}
	return nil
}

// Update repoints an existing edge.
func (r *PrerequisiteRepository) Update(ctx context.Context, edge *models.CoursePrerequisite) error {
	const query = `UPDATE course_prerequisites SET course_id = :course_id, prerequisite_id = :prerequisite_id WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, edge); err != nil {
		return fmt.Errorf("update prerequisite: %w", err)
	}
	return nil
}

// Delete removes an edge.
func (r *PrerequisiteRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM course_prerequisites WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete prerequisite: %w", err)
	}
	return nil
}
