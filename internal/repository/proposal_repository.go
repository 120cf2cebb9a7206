package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/ums-api/internal/models"
)

// ProposalRepository stores scheduler proposals and their slots.
type ProposalRepository struct {
	db *sqlx.DB
}

// NewProposalRepository constructs a ProposalRepository.
func NewProposalRepository(db *sqlx.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

const proposalColumns = "id, session_id, status, metadata, created_at, updated_at"

// ListBySession returns proposals for a session, newest first.
func (r *ProposalRepository) ListBySession(ctx context.Context, sessionID string) ([]models.ScheduleProposal, error) {
	query := "SELECT " + proposalColumns + " FROM schedule_proposals WHERE session_id = $1 ORDER BY created_at DESC"
	var proposals []models.ScheduleProposal
	if err := r.db.SelectContext(ctx, &proposals, query, sessionID); err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	return proposals, nil
}

// FindByID fetches one proposal.
func (r *ProposalRepository) FindByID(ctx context.Context, id string) (*models.ScheduleProposal, error) {
	query := "SELECT " + proposalColumns + " FROM schedule_proposals WHERE id = $1"
	var proposal models.ScheduleProposal
	if err := r.db.GetContext(ctx, &proposal, query, id); err != nil {
		return nil, err
	}
	return &proposal, nil
}

// Create inserts a proposal with its slots in one transaction.
func (r *ProposalRepository) Create(ctx context.Context, proposal *models.ScheduleProposal, slots []models.ProposalSlot) error {
	if proposal.ID == "" {
		proposal.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if proposal.CreatedAt.IsZero() {
		proposal.CreatedAt = now
	}
	proposal.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create proposal: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO schedule_proposals (id, session_id, status, metadata, created_at, updated_at)
		VALUES (:id, :session_id, :status, :metadata, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, proposal); err != nil {
		return fmt.Errorf("create proposal: %w", err)
	}

	const slotQuery = `INSERT INTO proposal_slots (id, proposal_id, batch_id, batch_name, session_course_id,
		course_name, teacher_id, classroom_id, room_name, days_of_week, start_time, end_time)
		VALUES (:id, :proposal_id, :batch_id, :batch_name, :session_course_id,
		:course_name, :teacher_id, :classroom_id, :room_name, :days_of_week, :start_time, :end_time)`
	for i := range slots {
		if slots[i].ID == "" {
			slots[i].ID = uuid.NewString()
		}
		slots[i].ProposalID = proposal.ID
		if _, err := tx.NamedExecContext(ctx, slotQuery, slots[i]); err != nil {
			return fmt.Errorf("create proposal slot: %w", err)
		}
	}

	return tx.Commit()
}

// ListSlots returns a proposal's slots ordered for grouping by batch.
func (r *ProposalRepository) ListSlots(ctx context.Context, proposalID string) ([]models.ProposalSlot, error) {
	const query = `SELECT id, proposal_id, batch_id, batch_name, session_course_id, course_name,
		teacher_id, classroom_id, room_name, days_of_week, start_time, end_time
		FROM proposal_slots WHERE proposal_id = $1 ORDER BY batch_name, start_time`
	var slots []models.ProposalSlot
	if err := r.db.SelectContext(ctx, &slots, query, proposalID); err != nil {
		return nil, fmt.Errorf("list proposal slots: %w", err)
	}
	return slots, nil
}

// UpdateStatus moves a proposal through its review states.
func (r *ProposalRepository) UpdateStatus(ctx context.Context, id string, status models.ProposalStatus) error {
	const query = `UPDATE schedule_proposals SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update proposal status: %w", err)
	}
	return nil
}
