package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestSessionCourseRepositorySync(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionCourseRepository(db)

	now := time.Now()
	existing := sqlmock.NewRows([]string{"id", "session_id", "course_id", "department_id", "semester", "created_at"}).
		AddRow("sc-1", "sess-1", "course-keep", "dept-1", 3, now).
		AddRow("sc-2", "sess-1", "course-drop", "dept-1", 3, now)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM session_courses\s+WHERE session_id = \$1 AND department_id = \$2 AND semester = \$3 FOR UPDATE`).
		WithArgs("sess-1", "dept-1", 3).
		WillReturnRows(existing)
	mock.ExpectExec(`DELETE FROM session_courses WHERE id = \$1`).
		WithArgs("sc-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO session_courses`).
		WithArgs(sqlmock.AnyArg(), "sess-1", "course-new", "dept-1", 3, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.Sync(context.Background(), "sess-1", "dept-1", 3, []string{"course-keep", "course-new"})
	require.NoError(t, err)
	require.Equal(t, 1, result.Created)
	require.Equal(t, 1, result.Removed)
	require.Equal(t, 1, result.Kept)
	require.NoError(t, mock.ExpectationsWereMet())
}
