package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campushub/ums-api/internal/service"
	appErrors "github.com/campushub/ums-api/pkg/errors"
	"github.com/campushub/ums-api/pkg/response"
)

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	service *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(svc *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// EnrollBatch godoc
// @Summary Enroll a batch into a session semester
// @Description Fans every active student of the batch out over the offered courses
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollBatchRequest true "Fan-out payload"
// @Success 200 {object} response.Envelope
// @Router /enrollments/batch [post]
func (h *EnrollmentHandler) EnrollBatch(c *gin.Context) {
	var req service.EnrollBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.EnrollBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// EnrollStudent godoc
// @Summary Enroll one student across a batch semester
// @Description Fans the student out over every course offered for the batch semester; existing enrollments are skipped
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollStudentRequest true "Enrollment payload"
// @Success 200 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) EnrollStudent(c *gin.Context) {
	var req service.EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.EnrollStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// BatchSemesterCourses godoc
// @Summary Courses covered by a batch-semester enrollment
// @Tags Enrollments
// @Produce json
// @Param batchId query string true "Batch ID"
// @Param sessionId query string true "Session ID"
// @Param semester query int true "Semester"
// @Success 200 {object} response.Envelope
// @Router /enrollments/batch-semester-courses [get]
func (h *EnrollmentHandler) BatchSemesterCourses(c *gin.Context) {
	semester, err := strconv.Atoi(c.Query("semester"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester must be a number"))
		return
	}

	courses, err := h.service.BatchSemesterCourses(c.Request.Context(), c.Query("batchId"), c.Query("sessionId"), semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// ListByStudent godoc
// @Summary List a student's enrollments
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/enrollments [get]
func (h *EnrollmentHandler) ListByStudent(c *gin.Context) {
	enrollments, err := h.service.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}
