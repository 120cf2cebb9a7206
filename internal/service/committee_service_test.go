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

type mockCommitteeRepo struct {
	results map[string]models.CommitteeResult
	updated map[string]models.CommitteeStatus
}

func (m *mockCommitteeRepo) List(ctx context.Context, batchID string) ([]models.CommitteeResult, error) {
	var list []models.CommitteeResult
	for _, r := range m.results {
		if batchID == "" || r.BatchID == batchID {
			list = append(list, r)
		}
	}
	return list, nil
}

func (m *mockCommitteeRepo) FindByID(ctx context.Context, id string) (*models.CommitteeResult, error) {
	if r, ok := m.results[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCommitteeRepo) Create(ctx context.Context, result *models.CommitteeResult) error {
	return nil
}

func (m *mockCommitteeRepo) UpdateStatus(ctx context.Context, id string, status models.CommitteeStatus) error {
	if m.updated == nil {
		m.updated = make(map[string]models.CommitteeStatus)
	}
	m.updated[id] = status
	if r, ok := m.results[id]; ok {
		r.Status = status
		m.results[id] = r
	}
	return nil
}

func TestCommitteeServiceTransitionPipeline(t *testing.T) {
	repo := &mockCommitteeRepo{results: map[string]models.CommitteeResult{
		"r1": {ID: "r1", BatchID: "b1", Semester: 1, Status: models.CommitteeWithInstructor},
	}}
	svc := NewCommitteeService(repo, nil, zap.NewNop())
	ctx := context.Background()

	for _, target := range []models.CommitteeStatus{
		models.CommitteeSubmitted,
		models.CommitteeApproved,
		models.CommitteePublished,
	} {
		result, err := svc.Transition(ctx, "r1", target)
		require.NoError(t, err)
		assert.Equal(t, target, result.Status)
	}
}

func TestCommitteeServiceRejectsIllegalTransition(t *testing.T) {
	repo := &mockCommitteeRepo{results: map[string]models.CommitteeResult{
		"r1": {ID: "r1", BatchID: "b1", Semester: 1, Status: models.CommitteeWithInstructor},
	}}
	svc := NewCommitteeService(repo, nil, zap.NewNop())

	_, err := svc.Transition(context.Background(), "r1", models.CommitteePublished)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.updated)
}

func TestCommitteeServiceReturnedGoesBackToSubmitted(t *testing.T) {
	repo := &mockCommitteeRepo{results: map[string]models.CommitteeResult{
		"r1": {ID: "r1", BatchID: "b1", Semester: 1, Status: models.CommitteeSubmitted},
	}}
	svc := NewCommitteeService(repo, nil, zap.NewNop())
	ctx := context.Background()

	result, err := svc.Transition(ctx, "r1", models.CommitteeReturned)
	require.NoError(t, err)
	assert.Equal(t, models.CommitteeReturned, result.Status)

	result, err = svc.Transition(ctx, "r1", models.CommitteeSubmitted)
	require.NoError(t, err)
	assert.Equal(t, models.CommitteeSubmitted, result.Status)
}

type captureAlertRepo struct {
	created []models.Alert
}

func (m *captureAlertRepo) ListActive(ctx context.Context) ([]models.Alert, error) { return nil, nil }
func (m *captureAlertRepo) Create(ctx context.Context, alert *models.Alert) error {
	m.created = append(m.created, *alert)
	return nil
}
func (m *captureAlertRepo) Dismiss(ctx context.Context, id string) error { return nil }
func (m *captureAlertRepo) DismissAll(ctx context.Context) error         { return nil }

func TestCommitteeServiceTransitionsRaiseAlerts(t *testing.T) {
	repo := &mockCommitteeRepo{results: map[string]models.CommitteeResult{
		"r1": {ID: "r1", BatchID: "b1", Semester: 3, Status: models.CommitteeSubmitted},
	}}
	alertRepo := &captureAlertRepo{}
	svc := NewCommitteeService(repo, NewAlertService(alertRepo, zap.NewNop()), zap.NewNop())
	ctx := context.Background()

	_, err := svc.Transition(ctx, "r1", models.CommitteeReturned)
	require.NoError(t, err)
	require.Len(t, alertRepo.created, 1)
	assert.Equal(t, models.AlertWarning, alertRepo.created[0].Level)
	assert.Equal(t, "committee", alertRepo.created[0].Source)

	_, err = svc.Transition(ctx, "r1", models.CommitteeSubmitted)
	require.NoError(t, err)
	// Re-submission is routine, nobody gets paged for it.
	require.Len(t, alertRepo.created, 1)

	_, err = svc.Transition(ctx, "r1", models.CommitteeApproved)
	require.NoError(t, err)
	_, err = svc.Transition(ctx, "r1", models.CommitteePublished)
	require.NoError(t, err)
	require.Len(t, alertRepo.created, 2)
	assert.Equal(t, models.AlertInfo, alertRepo.created[1].Level)
	assert.Contains(t, alertRepo.created[1].Message, "published")
}

func TestCommitteeServiceListGroupsByBatchSemester(t *testing.T) {
	repo := &mockCommitteeRepo{results: map[string]models.CommitteeResult{
		"r1": {ID: "r1", BatchID: "b1", Semester: 1, Status: models.CommitteeWithInstructor},
		"r2": {ID: "r2", BatchID: "b1", Semester: 1, Status: models.CommitteeSubmitted},
		"r3": {ID: "r3", BatchID: "b1", Semester: 2, Status: models.CommitteePublished},
	}}
	svc := NewCommitteeService(repo, nil, zap.NewNop())

	groups, err := svc.List(context.Background(), "b1")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	total := 0
	for _, g := range groups {
		total += len(g.Results)
	}
	assert.Equal(t, 3, total)
}
