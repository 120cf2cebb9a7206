package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
	appErrors "github.com/campushub/ums-api/pkg/errors"
)

type mockPrerequisiteRepo struct {
	edges   map[string]models.CoursePrerequisite
	created *models.CoursePrerequisite
}

func (m *mockPrerequisiteRepo) List(ctx context.Context, courseID string) ([]models.PrerequisiteDetail, error) {
	return nil, nil
}

func (m *mockPrerequisiteRepo) FindByID(ctx context.Context, id string) (*models.CoursePrerequisite, error) {
	if e, ok := m.edges[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPrerequisiteRepo) ExistsEdge(ctx context.Context, courseID, prerequisiteID, excludeID string) (bool, error) {
	for id, e := range m.edges {
		if id == excludeID {
			continue
		}
		if e.CourseID == courseID && e.PrerequisiteID == prerequisiteID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPrerequisiteRepo) Create(ctx context.Context, edge *models.CoursePrerequisite) error {
	if m.edges == nil {
		m.edges = make(map[string]models.CoursePrerequisite)
	}
	if edge.ID == "" {
		edge.ID = "new-edge"
	}
	m.edges[edge.ID] = *edge
	m.created = edge
	return nil
}

func (m *mockPrerequisiteRepo) Update(ctx context.Context, edge *models.CoursePrerequisite) error {
	m.edges[edge.ID] = *edge
	return nil
}

func (m *mockPrerequisiteRepo) Delete(ctx context.Context, id string) error {
	delete(m.edges, id)
	return nil
}

type mockCourseReader struct {
	courses map[string]*models.Course
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func newPrerequisiteFixture() (*mockPrerequisiteRepo, *PrerequisiteService) {
	repo := &mockPrerequisiteRepo{}
	courses := &mockCourseReader{courses: map[string]*models.Course{
		"c1": {ID: "c1", Code: "CS101"},
		"c2": {ID: "c2", Code: "CS201"},
	}}
	return repo, NewPrerequisiteService(repo, courses, validator.New(), zap.NewNop())
}

func TestPrerequisiteServiceCreate(t *testing.T) {
	repo, svc := newPrerequisiteFixture()

	edge, err := svc.Create(context.Background(), PrerequisiteRequest{
		Course:       models.Ref{ID: "c2"},
		Prerequisite: models.Ref{ID: "c1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "c2", edge.CourseID)
	assert.Equal(t, "c1", edge.PrerequisiteID)
	assert.NotNil(t, repo.created)
}

func TestPrerequisiteServiceRejectsSelfReference(t *testing.T) {
	repo, svc := newPrerequisiteFixture()

	_, err := svc.Create(context.Background(), PrerequisiteRequest{
		Course:       models.Ref{ID: "c1"},
		Prerequisite: models.Ref{ID: "c1"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestPrerequisiteServiceUpdateRejectsSelfReference(t *testing.T) {
	repo, svc := newPrerequisiteFixture()
	repo.edges = map[string]models.CoursePrerequisite{
		"e1": {ID: "e1", CourseID: "c2", PrerequisiteID: "c1"},
	}

	_, err := svc.Update(context.Background(), "e1", PrerequisiteRequest{
		Course:       models.Ref{ID: "c2"},
		Prerequisite: models.Ref{ID: "c2"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Equal(t, "c1", repo.edges["e1"].PrerequisiteID)
}

func TestPrerequisiteServiceRejectsDuplicateEdge(t *testing.T) {
	repo, svc := newPrerequisiteFixture()
	repo.edges = map[string]models.CoursePrerequisite{
		"e1": {ID: "e1", CourseID: "c2", PrerequisiteID: "c1"},
	}

	_, err := svc.Create(context.Background(), PrerequisiteRequest{
		Course:       models.Ref{ID: "c2"},
		Prerequisite: models.Ref{ID: "c1"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
