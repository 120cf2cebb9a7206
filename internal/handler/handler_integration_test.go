package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/middleware"
	"github.com/campushub/ums-api/internal/models"
	"github.com/campushub/ums-api/internal/service"
)

func TestCommitteeAndAlertRoutesIntegration(t *testing.T) {
	router := buildPipelineRouter(t)

	t.Run("committee list success", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/committee/results?batchId=b1", nil)
		req.Header.Set("X-Test-Role", string(models.RoleStaff))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"batch_id":"b1"`)
	})

	t.Run("committee list unauthorized", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/committee/results?batchId=b1", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("committee transition forbidden for students", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPut, "/committee/results/cr1/status", bytes.NewBufferString(`{"status":"SUBMITTED_TO_COMMITTEE"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleStudent))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("committee transition success", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPut, "/committee/results/cr1/status", bytes.NewBufferString(`{"status":"SUBMITTED_TO_COMMITTEE"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleTeacher))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"SUBMITTED_TO_COMMITTEE"`)
	})

	t.Run("committee illegal transition", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPut, "/committee/results/cr2/status", bytes.NewBufferString(`{"status":"PUBLISHED"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleStaff))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusPreconditionFailed, resp.Code)
	})

	t.Run("alerts list success", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/alerts", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"facerec"`)
	})

	t.Run("alerts dismiss all", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, "/alerts", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusNoContent, resp.Code)
	})
}

func buildPipelineRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(middleware.ContextUserKey, &models.JWTClaims{
				UserID: "test-user",
				Role:   models.UserRole(role),
			})
		}
		c.Next()
	})

	committeeHandler := NewCommitteeHandler(service.NewCommitteeService(&committeeRepoIntegrationMock{}, nil, zap.NewNop()))
	alertHandler := NewAlertHandler(service.NewAlertService(&alertRepoIntegrationMock{}, zap.NewNop()))

	reviewers := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleTeacher)
	router.GET("/committee/results", reviewers, committeeHandler.List)
	router.PUT("/committee/results/:id/status", reviewers, committeeHandler.Transition)

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
	router.GET("/alerts", staff, alertHandler.List)
	router.DELETE("/alerts", staff, alertHandler.DismissAll)

	return router
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type committeeRepoIntegrationMock struct{}

func (committeeRepoIntegrationMock) List(ctx context.Context, batchID string) ([]models.CommitteeResult, error) {
	return []models.CommitteeResult{
		{ID: "cr1", SessionCourseID: "sc1", CourseName: "Algorithms", BatchID: batchID, Semester: 3, Status: models.CommitteeWithInstructor},
	}, nil
}

func (committeeRepoIntegrationMock) FindByID(ctx context.Context, id string) (*models.CommitteeResult, error) {
	status := models.CommitteeWithInstructor
	if id == "cr2" {
		status = models.CommitteeReturned
	}
	return &models.CommitteeResult{ID: id, SessionCourseID: "sc1", BatchID: "b1", Semester: 3, Status: status}, nil
}

func (committeeRepoIntegrationMock) Create(ctx context.Context, result *models.CommitteeResult) error {
	return nil
}

func (committeeRepoIntegrationMock) UpdateStatus(ctx context.Context, id string, status models.CommitteeStatus) error {
	return nil
}

type alertRepoIntegrationMock struct{}

func (alertRepoIntegrationMock) ListActive(ctx context.Context) ([]models.Alert, error) {
	return []models.Alert{{ID: "a1", Level: models.AlertInfo, Source: "facerec", Message: "training finished"}}, nil
}

func (alertRepoIntegrationMock) Create(ctx context.Context, alert *models.Alert) error { return nil }

func (alertRepoIntegrationMock) Dismiss(ctx context.Context, id string) error { return nil }

func (alertRepoIntegrationMock) DismissAll(ctx context.Context) error { return nil }
