package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campushub/ums-api/internal/models"
	"github.com/campushub/ums-api/internal/service"
	appErrors "github.com/campushub/ums-api/pkg/errors"
	"github.com/campushub/ums-api/pkg/response"
)

// SessionCourseHandler exposes session course offering endpoints.
type SessionCourseHandler struct {
	service *service.SessionCourseService
}

// NewSessionCourseHandler constructs SessionCourseHandler.
func NewSessionCourseHandler(svc *service.SessionCourseService) *SessionCourseHandler {
	return &SessionCourseHandler{service: svc}
}

// List godoc
// @Summary List session courses
// @Tags SessionCourses
// @Produce json
// @Param sessionId query string false "Filter by session"
// @Param departmentId query string false "Filter by department"
// @Param semester query int false "Filter by semester"
// @Param courseId query string false "Filter by course"
// @Success 200 {object} response.Envelope
// @Router /session-courses [get]
func (h *SessionCourseHandler) List(c *gin.Context) {
	var filter models.SessionCourseFilter
	filter.SessionID = c.Query("sessionId")
	filter.DepartmentID = c.Query("departmentId")
	filter.CourseID = c.Query("courseId")
	if semester, err := strconv.Atoi(c.Query("semester")); err == nil {
		filter.Semester = semester
	}

	offerings, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offerings, nil)
}

// Create godoc
// @Summary Offer course in session
// @Tags SessionCourses
// @Accept json
// @Produce json
// @Param payload body service.CreateSessionCourseRequest true "Offering payload"
// @Success 201 {object} response.Envelope
// @Router /session-courses [post]
func (h *SessionCourseHandler) Create(c *gin.Context) {
	var req service.CreateSessionCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	offering, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, offering)
}

// Sync godoc
// @Summary Replace offered course set for a session scope
// @Tags SessionCourses
// @Accept json
// @Produce json
// @Param payload body service.SyncSessionCoursesRequest true "Sync payload"
// @Success 200 {object} response.Envelope
// @Router /session-courses/sync [post]
func (h *SessionCourseHandler) Sync(c *gin.Context) {
	var req service.SyncSessionCoursesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Sync(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Withdraw offered course
// @Tags SessionCourses
// @Produce json
// @Param id path string true "Session course ID"
// @Success 204 {object} response.Envelope
// @Router /session-courses/{id} [delete]
func (h *SessionCourseHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
