package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
	appErrors "github.com/campushub/ums-api/pkg/errors"
)

type mockProposalRepo struct {
	proposals map[string]models.ScheduleProposal
	slots     []models.ProposalSlot
	status    map[string]models.ProposalStatus
}

func (m *mockProposalRepo) ListBySession(ctx context.Context, sessionID string) ([]models.ScheduleProposal, error) {
	return nil, nil
}

func (m *mockProposalRepo) FindByID(ctx context.Context, id string) (*models.ScheduleProposal, error) {
	if p, ok := m.proposals[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProposalRepo) Create(ctx context.Context, proposal *models.ScheduleProposal, slots []models.ProposalSlot) error {
	return nil
}

func (m *mockProposalRepo) ListSlots(ctx context.Context, proposalID string) ([]models.ProposalSlot, error) {
	return m.slots, nil
}

func (m *mockProposalRepo) UpdateStatus(ctx context.Context, id string, status models.ProposalStatus) error {
	if m.status == nil {
		m.status = make(map[string]models.ProposalStatus)
	}
	m.status[id] = status
	return nil
}

type mockScheduleWriter struct {
	created []models.CourseSchedule
}

func (m *mockScheduleWriter) Create(ctx context.Context, schedule *models.CourseSchedule) error {
	m.created = append(m.created, *schedule)
	return nil
}

func TestProposalServiceApproveMaterializesSchedules(t *testing.T) {
	repo := &mockProposalRepo{
		proposals: map[string]models.ScheduleProposal{
			"p1": {ID: "p1", SessionID: "sess1", Status: models.ProposalPending},
		},
		slots: []models.ProposalSlot{
			{ID: "sl1", ProposalID: "p1", BatchID: "b1", SessionCourseID: "sc1", TeacherID: "t1", DaysOfWeek: []string{"MON"}, StartTime: "09:00", EndTime: "10:00"},
			{ID: "sl2", ProposalID: "p1", BatchID: "b2", SessionCourseID: "sc2", TeacherID: "t2", DaysOfWeek: []string{"TUE"}, StartTime: "10:00", EndTime: "11:00"},
		},
	}
	schedules := &mockScheduleWriter{}
	svc := NewProposalService(repo, schedules, &mockSessionReader{}, zap.NewNop())

	result, err := svc.Approve(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.SchedulesCreated)
	assert.Equal(t, models.ProposalApproved, repo.status["p1"])
	require.Len(t, schedules.created, 2)
	for _, schedule := range schedules.created {
		require.NotNil(t, schedule.ProposalID)
		assert.Equal(t, "p1", *schedule.ProposalID)
		assert.True(t, schedule.IsActive)
	}
}

func TestProposalServiceApproveRequiresPending(t *testing.T) {
	repo := &mockProposalRepo{
		proposals: map[string]models.ScheduleProposal{
			"p1": {ID: "p1", SessionID: "sess1", Status: models.ProposalApproved},
		},
	}
	svc := NewProposalService(repo, &mockScheduleWriter{}, &mockSessionReader{}, zap.NewNop())

	_, err := svc.Approve(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestProposalServiceGetGroupsSlotsPerBatch(t *testing.T) {
	repo := &mockProposalRepo{
		proposals: map[string]models.ScheduleProposal{
			"p1": {ID: "p1", SessionID: "sess1", Status: models.ProposalPending},
		},
		slots: []models.ProposalSlot{
			{ID: "sl1", BatchID: "b1", BatchName: "CS-2024"},
			{ID: "sl2", BatchID: "b1", BatchName: "CS-2024"},
			{ID: "sl3", BatchID: "b2", BatchName: "CS-2025"},
		},
	}
	svc := NewProposalService(repo, &mockScheduleWriter{}, &mockSessionReader{}, zap.NewNop())

	detail, err := svc.Get(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, detail.Batches, 2)
	assert.Equal(t, "b1", detail.Batches[0].BatchID)
	assert.Len(t, detail.Batches[0].Slots, 2)
	assert.Len(t, detail.Batches[1].Slots, 1)
}

func TestProposalServiceRejectPending(t *testing.T) {
	repo := &mockProposalRepo{
		proposals: map[string]models.ScheduleProposal{
			"p1": {ID: "p1", SessionID: "sess1", Status: models.ProposalPending},
		},
	}
	svc := NewProposalService(repo, &mockScheduleWriter{}, &mockSessionReader{}, zap.NewNop())

	require.NoError(t, svc.Reject(context.Background(), "p1"))
	assert.Equal(t, models.ProposalRejected, repo.status["p1"])
}
