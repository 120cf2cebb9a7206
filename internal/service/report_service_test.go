package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
	appErrors "github.com/campushub/ums-api/pkg/errors"
	"github.com/campushub/ums-api/pkg/jobs"
	"github.com/campushub/ums-api/pkg/storage"
)

type mockReportRepo struct {
	jobs      map[string]*models.ReportJob
	seq       int
	completed map[string]string
	failed    map[string]string
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{
		jobs:      map[string]*models.ReportJob{},
		completed: map[string]string{},
		failed:    map[string]string{},
	}
}

func (m *mockReportRepo) Create(ctx context.Context, job *models.ReportJob) error {
	m.seq++
	job.ID = fmt.Sprintf("job%d", m.seq)
	job.CreatedAt = time.Now()
	m.jobs[job.ID] = job
	return nil
}

func (m *mockReportRepo) FindByID(ctx context.Context, id string) (*models.ReportJob, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *job
	return &copied, nil
}

func (m *mockReportRepo) ListByRequester(ctx context.Context, userID string) ([]models.ReportJob, error) {
	var out []models.ReportJob
	for _, job := range m.jobs {
		if job.RequestedBy == userID {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (m *mockReportRepo) MarkCompleted(ctx context.Context, id, filePath string) error {
	m.completed[id] = filePath
	m.jobs[id].State = models.ReportCompleted
	m.jobs[id].FilePath = &filePath
	return nil
}

func (m *mockReportRepo) MarkFailed(ctx context.Context, id, reason string) error {
	m.failed[id] = reason
	m.jobs[id].State = models.ReportFailed
	m.jobs[id].Error = &reason
	return nil
}

type mockLoanLister struct {
	loans []models.BorrowingDetail
}

func (m *mockLoanLister) List(ctx context.Context, filter models.BorrowingFilter) ([]models.BorrowingDetail, int, error) {
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(m.loans) {
		return nil, len(m.loans), nil
	}
	end := start + filter.PageSize
	if end > len(m.loans) {
		end = len(m.loans)
	}
	return m.loans[start:end], len(m.loans), nil
}

func newReportFixture(t *testing.T) (*ReportService, *mockReportRepo) {
	t.Helper()
	repo := newMockReportRepo()
	loans := &mockLoanLister{loans: []models.BorrowingDetail{
		{
			Borrowing:    models.Borrowing{BorrowerType: models.RoleStudent, Status: models.BorrowingActive, BorrowedAt: time.Now().Add(-48 * time.Hour), DueDate: time.Now().Add(48 * time.Hour)},
			BookTitle:    "SICP",
			CopyNumber:   3,
			BorrowerName: "Ada Lovelace",
		},
		{
			Borrowing:    models.Borrowing{BorrowerType: models.RoleTeacher, Status: models.BorrowingReturned, BorrowedAt: time.Now().Add(-96 * time.Hour), DueDate: time.Now().Add(-24 * time.Hour), FineAmount: 2},
			BookTitle:    "TAOCP",
			CopyNumber:   1,
			BorrowerName: "Grace Hopper",
		},
	}}
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := NewReportService(repo, loans, store, ReportConfig{Workers: 1, Retries: 1, SigningSecret: "test-secret", LinkTTL: time.Hour}, nil, nil, zap.NewNop())
	return svc, repo
}

func TestReportProcessRendersCSV(t *testing.T) {
	svc, repo := newReportFixture(t)
	ctx := context.Background()

	job := &models.ReportJob{Type: ReportBorrowings, Format: models.ReportCSV, State: models.ReportQueued, RequestedBy: "u1"}
	require.NoError(t, repo.Create(ctx, job))

	require.NoError(t, svc.process(ctx, jobs.Job{ID: job.ID, Type: job.Type}))

	name, ok := repo.completed[job.ID]
	require.True(t, ok)
	assert.Equal(t, models.ReportCompleted, repo.jobs[job.ID].State)

	content, err := os.ReadFile(svc.store.Path(name))
	require.NoError(t, err)
	assert.Contains(t, string(content), "SICP")
	assert.Contains(t, string(content), "Grace Hopper")
}

func TestReportProcessFailsTerminallyOnUnknownType(t *testing.T) {
	svc, repo := newReportFixture(t)
	ctx := context.Background()

	job := &models.ReportJob{Type: "grades", Format: models.ReportCSV, State: models.ReportQueued, RequestedBy: "u1"}
	require.NoError(t, repo.Create(ctx, job))

	// Returns nil so the queue does not retry a deterministic failure.
	require.NoError(t, svc.process(ctx, jobs.Job{ID: job.ID, Type: job.Type}))
	assert.Equal(t, models.ReportFailed, repo.jobs[job.ID].State)
	assert.Contains(t, repo.failed[job.ID], "unknown report type")
}

func TestReportRequestValidatesPayload(t *testing.T) {
	svc, repo := newReportFixture(t)

	_, err := svc.Request(context.Background(), "u1", CreateReportRequest{Type: "grades", Format: "docx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.jobs)
}

func TestReportLinkAndDownload(t *testing.T) {
	svc, repo := newReportFixture(t)
	ctx := context.Background()

	job := &models.ReportJob{Type: ReportBorrowings, Format: models.ReportCSV, State: models.ReportQueued, RequestedBy: "u1"}
	require.NoError(t, repo.Create(ctx, job))

	// No link until the export has been rendered.
	_, _, err := svc.Link(ctx, job.ID, "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.process(ctx, jobs.Job{ID: job.ID, Type: job.Type}))

	_, _, err = svc.Link(ctx, job.ID, "u2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	token, expires, err := svc.Link(ctx, job.ID, "u1")
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))

	file, name, err := svc.Download(ctx, token)
	require.NoError(t, err)
	defer file.Close()
	assert.Contains(t, name, job.ID)

	_, _, err = svc.Download(ctx, "not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestReportGetEnforcesOwnership(t *testing.T) {
	svc, repo := newReportFixture(t)
	ctx := context.Background()

	job := &models.ReportJob{Type: ReportBorrowings, Format: models.ReportPDF, State: models.ReportQueued, RequestedBy: "u1"}
	require.NoError(t, repo.Create(ctx, job))

	_, err := svc.Get(ctx, job.ID, "u2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	got, err := svc.Get(ctx, job.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
}
