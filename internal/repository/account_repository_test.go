package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/campushub/ums-api/internal/models"
)

func TestAccountRepositoryListSeparatesDeleted(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	rows := sqlmock.NewRows([]string{"id", "type", "full_name", "email", "registration_number", "designation",
		"is_blocked", "block_reason", "registered_ips", "deleted_at", "created_at", "updated_at"}).
		AddRow("acc-1", "TEACHER", "Ada Byron", "ada@example.edu", "T-100", nil,
			false, nil, "{}", time.Now(), time.Now(), time.Now())
	mock.ExpectQuery(`FROM accounts WHERE type = \$1 AND deleted_at IS NOT NULL`).
		WithArgs("TEACHER").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM accounts WHERE type = \$1 AND deleted_at IS NOT NULL`).
		WithArgs("TEACHER").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	accounts, total, err := repo.List(context.Background(), models.AccountFilter{Type: models.AccountTeacher, Deleted: true})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, accounts, 1)
	require.True(t, accounts[0].Deleted())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositorySoftDeleteOnlyActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE accounts SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`)).
		WithArgs("acc-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SoftDelete(context.Background(), "acc-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryRestoreOnlyDeleted(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE accounts SET deleted_at = NULL, updated_at = $2 WHERE id = $1 AND deleted_at IS NOT NULL`)).
		WithArgs("acc-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Restore(context.Background(), "acc-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
