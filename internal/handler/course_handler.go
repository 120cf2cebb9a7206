package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campushub/ums-api/internal/models"
	"github.com/campushub/ums-api/internal/service"
	appErrors "github.com/campushub/ums-api/pkg/errors"
	"github.com/campushub/ums-api/pkg/response"
)

// CourseHandler exposes the course catalog and prerequisite endpoints.
type CourseHandler struct {
	courses       *service.CourseService
	prerequisites *service.PrerequisiteService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses *service.CourseService, prerequisites *service.PrerequisiteService) *CourseHandler {
	return &CourseHandler{courses: courses, prerequisites: prerequisites}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param departmentId query string false "Filter by department"
// @Param sessionId query string false "Filter by session"
// @Param semester query int false "Filter by semester"
// @Param status query string false "Filter by status"
// @Param search query string false "Search by code or title"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	var filter models.CourseFilter
	filter.DepartmentID = c.Query("departmentId")
	filter.SessionID = c.Query("sessionId")
	filter.Status = strings.ToUpper(c.Query("status"))
	filter.Search = c.Query("search")
	if semester, err := strconv.Atoi(c.Query("semester")); err == nil {
		filter.Semester = semester
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	courses, pagination, err := h.courses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Get godoc
// @Summary Get course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Update course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.UpdateCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req service.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete godoc
// @Summary Delete course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 204 {object} response.Envelope
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.courses.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListPrerequisites godoc
// @Summary List prerequisite edges
// @Tags Courses
// @Produce json
// @Param courseId query string false "Filter by course"
// @Success 200 {object} response.Envelope
// @Router /prerequisites [get]
func (h *CourseHandler) ListPrerequisites(c *gin.Context) {
	edges, err := h.prerequisites.List(c.Request.Context(), c.Query("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, edges, nil)
}

// CreatePrerequisite godoc
// @Summary Create prerequisite edge
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.PrerequisiteRequest true "Prerequisite payload"
// @Success 201 {object} response.Envelope
// @Router /prerequisites [post]
func (h *CourseHandler) CreatePrerequisite(c *gin.Context) {
	var req service.PrerequisiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	edge, err := h.prerequisites.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, edge)
}

// UpdatePrerequisite godoc
// @Summary Update prerequisite edge
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Prerequisite ID"
// @Param payload body service.PrerequisiteRequest true "Prerequisite payload"
// @Success 200 {object} response.Envelope
// @Router /prerequisites/{id} [put]
func (h *CourseHandler) UpdatePrerequisite(c *gin.Context) {
	var req service.PrerequisiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	edge, err := h.prerequisites.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, edge, nil)
}

// DeletePrerequisite godoc
// @Summary Delete prerequisite edge
// @Tags Courses
// @Produce json
// @Param id path string true "Prerequisite ID"
// @Success 204 {object} response.Envelope
// @Router /prerequisites/{id} [delete]
func (h *CourseHandler) DeletePrerequisite(c *gin.Context) {
	if err := h.prerequisites.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
