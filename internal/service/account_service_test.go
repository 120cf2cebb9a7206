package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
	appErrors "github.com/campushub/ums-api/pkg/errors"
)

type mockAccountRepo struct {
	accounts    map[string]*models.Account
	softDeleted []string
	restored    []string
	purged      []string
}

func (m *mockAccountRepo) List(ctx context.Context, filter models.AccountFilter) ([]models.Account, int, error) {
	var out []models.Account
	for _, a := range m.accounts {
		if a.Type != filter.Type {
			continue
		}
		if a.Deleted() != filter.Deleted {
			continue
		}
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (m *mockAccountRepo) FindByID(ctx context.Context, accountType models.AccountType, id string) (*models.Account, error) {
	a, ok := m.accounts[id]
	if !ok || a.Type != accountType {
		return nil, sql.ErrNoRows
	}
	copied := *a
	return &copied, nil
}

func (m *mockAccountRepo) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	for _, a := range m.accounts {
		if a.Email == email && a.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAccountRepo) Create(ctx context.Context, account *models.Account) error {
	m.accounts[account.ID] = account
	return nil
}

func (m *mockAccountRepo) Update(ctx context.Context, account *models.Account) error {
	m.accounts[account.ID] = account
	return nil
}

func (m *mockAccountRepo) SoftDelete(ctx context.Context, id string) error {
	now := time.Now()
	m.accounts[id].DeletedAt = &now
	m.softDeleted = append(m.softDeleted, id)
	return nil
}

func (m *mockAccountRepo) Restore(ctx context.Context, id string) error {
	m.accounts[id].DeletedAt = nil
	m.restored = append(m.restored, id)
	return nil
}

func (m *mockAccountRepo) PermanentDelete(ctx context.Context, id string) error {
	delete(m.accounts, id)
	m.purged = append(m.purged, id)
	return nil
}

func (m *mockAccountRepo) FindProfile(ctx context.Context, accountID string) (*models.Profile, error) {
	return nil, sql.ErrNoRows
}

func (m *mockAccountRepo) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	return nil
}

func (m *mockAccountRepo) AddAddress(ctx context.Context, address *models.Address) error { return nil }

func (m *mockAccountRepo) SetPrimaryAddress(ctx context.Context, profileID, addressID string) error {
	return nil
}

func (m *mockAccountRepo) RemoveAddress(ctx context.Context, profileID, addressID string) error {
	return nil
}

type mockAuditor struct {
	logs []*models.AuditLog
}

func (m *mockAuditor) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func newAccountFixture() (*AccountService, *mockAccountRepo, *mockAuditor) {
	repo := &mockAccountRepo{accounts: map[string]*models.Account{
		"t1": {ID: "t1", Type: models.AccountTeacher, FullName: "Ada Lovelace", Email: "ada@example.edu", RegistrationNumber: "T-001"},
	}}
	auditor := &mockAuditor{}
	svc := NewAccountService(repo, auditor, nil, zap.NewNop())
	return svc, repo, auditor
}

func TestAccountLifecycle(t *testing.T) {
	svc, repo, auditor := newAccountFixture()
	ctx := context.Background()

	require.NoError(t, svc.SoftDelete(ctx, models.AccountTeacher, "t1"))
	assert.Equal(t, []string{"t1"}, repo.softDeleted)
	assert.NotEmpty(t, auditor.logs)

	// Already deleted: delete again must fail.
	err := svc.SoftDelete(ctx, models.AccountTeacher, "t1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Restore(ctx, models.AccountTeacher, "t1"))
	assert.Nil(t, repo.accounts["t1"].DeletedAt)

	// Restore on a live account fails too.
	err = svc.Restore(ctx, models.AccountTeacher, "t1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestAccountPermanentDeleteRequiresSoftDelete(t *testing.T) {
	svc, repo, _ := newAccountFixture()
	ctx := context.Background()

	err := svc.PermanentDelete(ctx, models.AccountTeacher, "t1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.purged)

	require.NoError(t, svc.SoftDelete(ctx, models.AccountTeacher, "t1"))
	require.NoError(t, svc.PermanentDelete(ctx, models.AccountTeacher, "t1"))
	assert.Equal(t, []string{"t1"}, repo.purged)
	assert.NotContains(t, repo.accounts, "t1")
}

func TestAccountCreateRejectsDuplicateEmail(t *testing.T) {
	svc, repo, _ := newAccountFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, models.AccountTeacher, CreateAccountRequest{
		FullName:           "Grace Hopper",
		Email:              "ada@example.edu",
		RegistrationNumber: "T-002",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Len(t, repo.accounts, 1)
}

func TestAccountGetWrongTypeIsNotFound(t *testing.T) {
	svc, _, _ := newAccountFixture()

	_, err := svc.Get(context.Background(), models.AccountStaff, "t1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
