package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campushub/ums-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestBookRepositoryGenerateCopiesContinuesNumbering(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT MAX\(copy_number\) FROM book_copies WHERE book_id = \$1`).
		WithArgs("book-1").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(3))
	for i := 4; i <= 6; i++ {
		mock.ExpectExec(`INSERT INTO book_copies`).
			WithArgs(sqlmock.AnyArg(), "book-1", i, models.CopyAvailable, models.ConditionNew, "main", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	copies, err := repo.GenerateCopies(context.Background(), "book-1", 3, models.ConditionNew, "main")
	require.NoError(t, err)
	require.Len(t, copies, 3)
	require.Equal(t, 4, copies[0].CopyNumber)
	require.Equal(t, 6, copies[2].CopyNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepositoryGenerateCopiesStartsAtOne(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT MAX\(copy_number\) FROM book_copies WHERE book_id = \$1`).
		WithArgs("book-2").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))
	mock.ExpectExec(`INSERT INTO book_copies`).
		WithArgs(sqlmock.AnyArg(), "book-2", 1, models.CopyAvailable, models.ConditionGood, "annex", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	copies, err := repo.GenerateCopies(context.Background(), "book-2", 1, models.ConditionGood, "annex")
	require.NoError(t, err)
	require.Equal(t, 1, copies[0].CopyNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}
