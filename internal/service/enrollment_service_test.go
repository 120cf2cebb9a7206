package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
	appErrors "github.com/campushub/ums-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	existing map[string]bool
	created  []models.Enrollment
	failFor  map[string]bool
}

func (m *mockEnrollmentRepo) key(studentID, sessionCourseID string) string {
	return studentID + ":" + sessionCourseID
}

func (m *mockEnrollmentRepo) Exists(ctx context.Context, studentID, sessionCourseID string) (bool, error) {
	return m.existing[m.key(studentID, sessionCourseID)], nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.failFor[m.key(enrollment.StudentID, enrollment.SessionCourseID)] {
		return fmt.Errorf("insert failed")
	}
	if m.existing == nil {
		m.existing = make(map[string]bool)
	}
	m.existing[m.key(enrollment.StudentID, enrollment.SessionCourseID)] = true
	m.created = append(m.created, *enrollment)
	return nil
}

func (m *mockEnrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	return nil, nil
}

type mockEnrollmentCourses struct {
	courses []models.SessionCourse
}

func (m *mockEnrollmentCourses) ListForBatchSemester(ctx context.Context, batchID, sessionID string, semester int) ([]models.SessionCourse, error) {
	return m.courses, nil
}

type mockEnrollmentStudents struct {
	students []models.Student
}

func (m *mockEnrollmentStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	for i := range m.students {
		if m.students[i].ID == id {
			return &m.students[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentStudents) ListByBatch(ctx context.Context, batchID, search string) ([]models.Student, error) {
	return m.students, nil
}

type mockSessionReader struct{}

func (m *mockSessionReader) FindSession(ctx context.Context, id string) (*models.Session, error) {
	if id == "missing" {
		return nil, sql.ErrNoRows
	}
	return &models.Session{ID: id, Active: true}, nil
}

func (m *mockSessionReader) FindDepartment(ctx context.Context, id string) (*models.Department, error) {
	return &models.Department{ID: id}, nil
}

func TestEnrollmentServiceEnrollBatchFanOut(t *testing.T) {
	repo := &mockEnrollmentRepo{
		existing: map[string]bool{"s1:sc1": true},
	}
	courses := &mockEnrollmentCourses{courses: []models.SessionCourse{{ID: "sc1"}, {ID: "sc2"}}}
	students := &mockEnrollmentStudents{students: []models.Student{
		{ID: "s1", Active: true},
		{ID: "s2", Active: true},
		{ID: "s3", Active: false},
	}}
	svc := NewEnrollmentService(repo, courses, students, &mockSessionReader{}, nil, validator.New(), zap.NewNop())

	result, err := svc.EnrollBatch(context.Background(), EnrollBatchRequest{
		Batch:    models.Ref{ID: "b1"},
		Session:  models.Ref{ID: "sess1"},
		Semester: 3,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	// s1 already holds sc1, s3 is inactive.
	assert.Equal(t, 3, result.Enrolled)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 0, result.Failed)
}

func TestEnrollmentServiceEnrollBatchIsIdempotent(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	courses := &mockEnrollmentCourses{courses: []models.SessionCourse{{ID: "sc1"}}}
	students := &mockEnrollmentStudents{students: []models.Student{{ID: "s1", Active: true}}}
	svc := NewEnrollmentService(repo, courses, students, &mockSessionReader{}, nil, validator.New(), zap.NewNop())

	req := EnrollBatchRequest{Batch: models.Ref{ID: "b1"}, Session: models.Ref{ID: "sess1"}, Semester: 1}

	first, err := svc.EnrollBatch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Enrolled)

	second, err := svc.EnrollBatch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Enrolled)
	assert.Equal(t, 1, second.Skipped)
	assert.Len(t, repo.created, 1)
}

func TestEnrollmentServiceEnrollBatchContinuesPastFailures(t *testing.T) {
	repo := &mockEnrollmentRepo{failFor: map[string]bool{"s1:sc1": true}}
	courses := &mockEnrollmentCourses{courses: []models.SessionCourse{{ID: "sc1"}}}
	students := &mockEnrollmentStudents{students: []models.Student{
		{ID: "s1", Active: true},
		{ID: "s2", Active: true},
	}}
	svc := NewEnrollmentService(repo, courses, students, &mockSessionReader{}, nil, validator.New(), zap.NewNop())

	result, err := svc.EnrollBatch(context.Background(), EnrollBatchRequest{
		Batch:    models.Ref{ID: "b1"},
		Session:  models.Ref{ID: "sess1"},
		Semester: 1,
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Enrolled)
}

func TestEnrollmentServiceEnrollBatchRequiresOfferedCourses(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	courses := &mockEnrollmentCourses{}
	students := &mockEnrollmentStudents{}
	svc := NewEnrollmentService(repo, courses, students, &mockSessionReader{}, nil, validator.New(), zap.NewNop())

	_, err := svc.EnrollBatch(context.Background(), EnrollBatchRequest{
		Batch:    models.Ref{ID: "b1"},
		Session:  models.Ref{ID: "sess1"},
		Semester: 1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceEnrollStudentFansOutAcrossSemester(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	courses := &mockEnrollmentCourses{courses: []models.SessionCourse{{ID: "sc1"}, {ID: "sc2"}, {ID: "sc3"}}}
	students := &mockEnrollmentStudents{students: []models.Student{{ID: "s1", Active: true}}}
	svc := NewEnrollmentService(repo, courses, students, &mockSessionReader{}, nil, validator.New(), zap.NewNop())

	req := EnrollStudentRequest{
		Student:  models.Ref{ID: "s1"},
		Batch:    models.Ref{ID: "b1"},
		Session:  models.Ref{ID: "sess1"},
		Semester: 2,
	}

	first, err := svc.EnrollStudent(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, first.Success)
	assert.Equal(t, 3, first.Enrolled)
	assert.Equal(t, 0, first.Skipped)

	// Re-running skips what is already there instead of erroring.
	second, err := svc.EnrollStudent(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.Equal(t, 0, second.Enrolled)
	assert.Equal(t, 3, second.Skipped)
	assert.Equal(t, 0, second.Failed)
	assert.Len(t, repo.created, 3)
}

func TestEnrollmentServiceEnrollStudentRejectsInactive(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	courses := &mockEnrollmentCourses{courses: []models.SessionCourse{{ID: "sc1"}}}
	students := &mockEnrollmentStudents{students: []models.Student{{ID: "s1", Active: false}}}
	svc := NewEnrollmentService(repo, courses, students, &mockSessionReader{}, nil, validator.New(), zap.NewNop())

	_, err := svc.EnrollStudent(context.Background(), EnrollStudentRequest{
		Student:  models.Ref{ID: "s1"},
		Batch:    models.Ref{ID: "b1"},
		Session:  models.Ref{ID: "sess1"},
		Semester: 1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}
