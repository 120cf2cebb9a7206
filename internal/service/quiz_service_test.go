package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
	appErrors "github.com/campushub/ums-api/pkg/errors"
)

type mockQuizRepo struct {
	quizzes  map[string]models.Quiz
	attempts map[string]models.QuizAttempt
	created  *models.QuizAttempt
	updated  *models.QuizAttempt
}

func (m *mockQuizRepo) ListBySessionCourse(ctx context.Context, sessionCourseID string) ([]models.Quiz, error) {
	var list []models.Quiz
	for _, q := range m.quizzes {
		if q.SessionCourseID == sessionCourseID {
			list = append(list, q)
		}
	}
	return list, nil
}

func (m *mockQuizRepo) FindByID(ctx context.Context, id string) (*models.Quiz, error) {
	if q, ok := m.quizzes[id]; ok {
		return &q, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockQuizRepo) Create(ctx context.Context, quiz *models.Quiz) error { return nil }

func (m *mockQuizRepo) ListAttempts(ctx context.Context, quizID, studentID string) ([]models.QuizAttempt, error) {
	var list []models.QuizAttempt
	for _, a := range m.attempts {
		if a.QuizID == quizID && a.StudentID == studentID {
			list = append(list, a)
		}
	}
	return list, nil
}

func (m *mockQuizRepo) CountAttempts(ctx context.Context, quizID, studentID string) (int, error) {
	list, _ := m.ListAttempts(ctx, quizID, studentID)
	return len(list), nil
}

func (m *mockQuizRepo) FindAttempt(ctx context.Context, id string) (*models.QuizAttempt, error) {
	if a, ok := m.attempts[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockQuizRepo) FindInProgress(ctx context.Context, quizID, studentID string) (*models.QuizAttempt, error) {
	for _, a := range m.attempts {
		if a.QuizID == quizID && a.StudentID == studentID && a.Status == models.AttemptInProgress {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (m *mockQuizRepo) CreateAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	if m.attempts == nil {
		m.attempts = make(map[string]models.QuizAttempt)
	}
	if attempt.ID == "" {
		attempt.ID = "new-attempt"
	}
	if attempt.StartedAt.IsZero() {
		attempt.StartedAt = time.Now().UTC()
	}
	m.attempts[attempt.ID] = *attempt
	m.created = attempt
	return nil
}

func (m *mockQuizRepo) UpdateAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	m.attempts[attempt.ID] = *attempt
	m.updated = attempt
	return nil
}

func (m *mockQuizRepo) TimeOutExpired(ctx context.Context) (int, error) { return 0, nil }

type mockQuizSessionCourses struct{}

func (m *mockQuizSessionCourses) FindByID(ctx context.Context, id string) (*models.SessionCourse, error) {
	if id == "missing" {
		return nil, sql.ErrNoRows
	}
	return &models.SessionCourse{ID: id}, nil
}

func newQuizFixture(repo *mockQuizRepo) *QuizService {
	students := &mockLibraryStudents{students: map[string]*models.Student{
		"s1": {ID: "s1", Active: true},
		"s2": {ID: "s2", Active: true},
	}}
	return NewQuizService(repo, &mockQuizSessionCourses{}, students, validator.New(), zap.NewNop())
}

func TestQuizServiceStartAttemptEnforcesLimit(t *testing.T) {
	repo := &mockQuizRepo{
		quizzes: map[string]models.Quiz{
			"q1": {ID: "q1", SessionCourseID: "sc1", MaxAttempts: 2, DurationMinutes: 30},
		},
		attempts: map[string]models.QuizAttempt{
			"a1": {ID: "a1", QuizID: "q1", StudentID: "s1", Status: models.AttemptGraded},
			"a2": {ID: "a2", QuizID: "q1", StudentID: "s1", Status: models.AttemptTimedOut},
		},
	}
	svc := newQuizFixture(repo)

	_, err := svc.StartAttempt(context.Background(), "q1", "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	// A different student still has budget.
	attempt, err := svc.StartAttempt(context.Background(), "q1", "s2")
	require.NoError(t, err)
	assert.Equal(t, models.AttemptInProgress, attempt.Status)
}

func TestQuizServiceStartAttemptRefusesOpenAttempt(t *testing.T) {
	repo := &mockQuizRepo{
		quizzes: map[string]models.Quiz{
			"q1": {ID: "q1", SessionCourseID: "sc1", MaxAttempts: 3, DurationMinutes: 30},
		},
		attempts: map[string]models.QuizAttempt{
			"a1": {ID: "a1", QuizID: "q1", StudentID: "s1", Status: models.AttemptInProgress},
		},
	}
	svc := newQuizFixture(repo)

	_, err := svc.StartAttempt(context.Background(), "q1", "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestQuizServiceSubmitAttemptGrades(t *testing.T) {
	repo := &mockQuizRepo{
		quizzes: map[string]models.Quiz{
			"q1": {ID: "q1", MaxAttempts: 3, DurationMinutes: 30},
		},
		attempts: map[string]models.QuizAttempt{
			"a1": {ID: "a1", QuizID: "q1", StudentID: "s1", Status: models.AttemptInProgress, StartedAt: time.Now().UTC().Add(-5 * time.Minute)},
		},
	}
	svc := newQuizFixture(repo)

	attempt, err := svc.SubmitAttempt(context.Background(), "a1", "s1", SubmitAttemptRequest{Percentage: 87.5})
	require.NoError(t, err)
	assert.Equal(t, models.AttemptGraded, attempt.Status)
	require.NotNil(t, attempt.Percentage)
	assert.Equal(t, 87.5, *attempt.Percentage)
}

func TestQuizServiceSubmitAttemptPastDeadlineTimesOut(t *testing.T) {
	repo := &mockQuizRepo{
		quizzes: map[string]models.Quiz{
			"q1": {ID: "q1", MaxAttempts: 3, DurationMinutes: 30},
		},
		attempts: map[string]models.QuizAttempt{
			"a1": {ID: "a1", QuizID: "q1", StudentID: "s1", Status: models.AttemptInProgress, StartedAt: time.Now().UTC().Add(-2 * time.Hour)},
		},
	}
	svc := newQuizFixture(repo)

	attempt, err := svc.SubmitAttempt(context.Background(), "a1", "s1", SubmitAttemptRequest{Percentage: 95})
	require.NoError(t, err)
	assert.Equal(t, models.AttemptTimedOut, attempt.Status)
	assert.Nil(t, attempt.Percentage)
}

func TestQuizServiceSubmitAttemptRejectsOtherStudent(t *testing.T) {
	repo := &mockQuizRepo{
		quizzes: map[string]models.Quiz{"q1": {ID: "q1", MaxAttempts: 3, DurationMinutes: 30}},
		attempts: map[string]models.QuizAttempt{
			"a1": {ID: "a1", QuizID: "q1", StudentID: "s1", Status: models.AttemptInProgress, StartedAt: time.Now().UTC()},
		},
	}
	svc := newQuizFixture(repo)

	_, err := svc.SubmitAttempt(context.Background(), "a1", "s2", SubmitAttemptRequest{Percentage: 50})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestQuizServiceListForStudentAnnotatesBudget(t *testing.T) {
	best := 72.0
	repo := &mockQuizRepo{
		quizzes: map[string]models.Quiz{
			"q1": {ID: "q1", SessionCourseID: "sc1", MaxAttempts: 3, DurationMinutes: 30},
		},
		attempts: map[string]models.QuizAttempt{
			"a1": {ID: "a1", QuizID: "q1", StudentID: "s1", Status: models.AttemptGraded, Percentage: &best},
			"a2": {ID: "a2", QuizID: "q1", StudentID: "s1", Status: models.AttemptInProgress},
		},
	}
	svc := newQuizFixture(repo)

	summaries, err := svc.ListForStudent(context.Background(), "sc1", "s1")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 2, summaries[0].AttemptsUsed)
	assert.Equal(t, 1, summaries[0].AttemptsRemaining)
	require.NotNil(t, summaries[0].BestScore)
	assert.Equal(t, 72.0, *summaries[0].BestScore)
	require.NotNil(t, summaries[0].InProgressID)
	assert.Equal(t, "a2", *summaries[0].InProgressID)
}
