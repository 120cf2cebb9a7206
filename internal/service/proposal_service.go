package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
	appErrors "github.com/campushub/ums-api/pkg/errors"
)

type proposalRepository interface {
	ListBySession(ctx context.Context, sessionID string) ([]models.ScheduleProposal, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleProposal, error)
	Create(ctx context.Context, proposal *models.ScheduleProposal, slots []models.ProposalSlot) error
	ListSlots(ctx context.Context, proposalID string) ([]models.ProposalSlot, error)
	UpdateStatus(ctx context.Context, id string, status models.ProposalStatus) error
}

type scheduleWriter interface {
	Create(ctx context.Context, schedule *models.CourseSchedule) error
}

// ProposalService reviews and applies scheduler-generated timetable
// proposals.
type ProposalService struct {
	repo      proposalRepository
	schedules scheduleWriter
	refs      sessionReader
	logger    *zap.Logger
}

// NewProposalService constructs ProposalService.
func NewProposalService(repo proposalRepository, schedules scheduleWriter, refs sessionReader, logger *zap.Logger) *ProposalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProposalService{repo: repo, schedules: schedules, refs: refs, logger: logger}
}

// ListBySession returns proposals for a session, newest first.
func (s *ProposalService) ListBySession(ctx context.Context, sessionID string) ([]models.ScheduleProposal, error) {
	if _, err := s.refs.FindSession(ctx, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	proposals, err := s.repo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list proposals")
	}
	return proposals, nil
}

// Get returns a proposal with its slots grouped per batch, the shape
// review screens render.
func (s *ProposalService) Get(ctx context.Context, id string) (*models.ProposalDetail, error) {
	proposal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load proposal")
	}
	slots, err := s.repo.ListSlots(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load proposal slots")
	}

	detail := &models.ProposalDetail{Proposal: *proposal}
	index := make(map[string]int)
	for _, slot := range slots {
		i, ok := index[slot.BatchID]
		if !ok {
			detail.Batches = append(detail.Batches, models.ProposalBatch{BatchID: slot.BatchID, BatchName: slot.BatchName})
			i = len(detail.Batches) - 1
			index[slot.BatchID] = i
		}
		detail.Batches[i].Slots = append(detail.Batches[i].Slots, slot)
	}
	return detail, nil
}

// Approve accepts a pending proposal and materializes every slot as an
// active course schedule stamped with the proposal id.
func (s *ProposalService) Approve(ctx context.Context, id string) (*models.ApplyResult, error) {
	proposal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load proposal")
	}
	if proposal.Status != models.ProposalPending {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "proposal is not pending")
	}

	session, err := s.refs.FindSession(ctx, proposal.SessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	slots, err := s.repo.ListSlots(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load proposal slots")
	}

	result := &models.ApplyResult{ProposalID: id}
	for _, slot := range slots {
		schedule := &models.CourseSchedule{
			SessionCourseID: slot.SessionCourseID,
			BatchID:         slot.BatchID,
			TeacherID:       slot.TeacherID,
			ClassroomID:     slot.ClassroomID,
			DaysOfWeek:      slot.DaysOfWeek,
			StartTime:       slot.StartTime,
			EndTime:         slot.EndTime,
			StartDate:       session.StartDate,
			EndDate:         session.EndDate,
			IsActive:        true,
			ProposalID:      &proposal.ID,
		}
		if err := s.schedules.Create(ctx, schedule); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to materialize schedule")
		}
		result.SchedulesCreated++
	}

	if err := s.repo.UpdateStatus(ctx, id, models.ProposalApproved); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve proposal")
	}
	s.logger.Info("proposal applied", zap.String("proposal_id", id), zap.Int("schedules", result.SchedulesCreated))
	return result, nil
}

// Reject declines a pending proposal.
func (s *ProposalService) Reject(ctx context.Context, id string) error {
	proposal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "proposal not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load proposal")
	}
	if proposal.Status != models.ProposalPending {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "proposal is not pending")
	}
	if err := s.repo.UpdateStatus(ctx, id, models.ProposalRejected); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject proposal")
	}
	return nil
}
