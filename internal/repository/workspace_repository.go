package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/ums-api/internal/models"
)

// WorkspaceRepository manages course-batch collaboration workspaces.
type WorkspaceRepository struct {
	db *sqlx.DB
}

// NewWorkspaceRepository constructs a WorkspaceRepository.
func NewWorkspaceRepository(db *sqlx.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

const workspaceColumns = "id, course_id, batch_id, title, status, created_at, updated_at"

// List returns workspaces, optionally by status.
func (r *WorkspaceRepository) List(ctx context.Context, status models.WorkspaceStatus) ([]models.Workspace, error) {
	query := "SELECT " + workspaceColumns + " FROM workspaces"
	var args []interface{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	var workspaces []models.Workspace
	if err := r.db.SelectContext(ctx, &workspaces, query, args...); err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	return workspaces, nil
}

// FindByID fetches a workspace by ID.
func (r *WorkspaceRepository) FindByID(ctx context.Context, id string) (*models.Workspace, error) {
	query := "SELECT " + workspaceColumns + " FROM workspaces WHERE id = $1"
	var workspace models.Workspace
	if err := r.db.GetContext(ctx, &workspace, query, id); err != nil {
		return nil, err
	}
	return &workspace, nil
}

// FindByPair fetches the workspace for a course-batch pairing.
func (r *WorkspaceRepository) FindByPair(ctx context.Context, courseID, batchID string) (*models.Workspace, error) {
	query := "SELECT " + workspaceColumns + " FROM workspaces WHERE course_id = $1 AND batch_id = $2"
	var workspace models.Workspace
	if err := r.db.GetContext(ctx, &workspace, query, courseID, batchID); err != nil {
		return nil, err
	}
	return &workspace, nil
}

// ListPending returns course-batch pairings that have enrollments but
// no workspace yet.
func (r *WorkspaceRepository) ListPending(ctx context.Context) ([]models.PendingWorkspace, error) {
	const query = `SELECT DISTINCT c.id AS course_id, c.name AS course_name, s.batch_id, b.name AS batch_name
		FROM enrollments e
		JOIN students s ON s.id = e.student_id
		JOIN batches b ON b.id = s.batch_id
		JOIN session_courses sc ON sc.id = e.session_course_id
		JOIN courses c ON c.id = sc.course_id
		WHERE NOT EXISTS (
			SELECT 1 FROM workspaces w WHERE w.course_id = c.id AND w.batch_id = s.batch_id
		)
		ORDER BY c.name, b.name`
	var pending []models.PendingWorkspace
	if err := r.db.SelectContext(ctx, &pending, query); err != nil {
		return nil, fmt.Errorf("list pending workspaces: %w", err)
	}
	return pending, nil
}

// Create inserts a workspace.
func (r *WorkspaceRepository) Create(ctx context.Context, workspace *models.Workspace) error {
	if workspace.ID == "" {
		workspace.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if workspace.CreatedAt.IsZero() {
		workspace.CreatedAt = now
	}
	workspace.UpdatedAt = now

	const query = `INSERT INTO workspaces (id, course_id, batch_id, title, status, created_at, updated_at)
		VALUES (:id, :course_id, :batch_id, :title, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, workspace); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	return nil
}

// UpdateStatus archives or reactivates a workspace.
func (r *WorkspaceRepository) UpdateStatus(ctx context.Context, id string, status models.WorkspaceStatus) error {
	const query = `UPDATE workspaces SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update workspace status: %w", err)
	}
	return nil
}
