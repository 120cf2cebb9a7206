package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/ums-api/internal/models"
	"github.com/campushub/ums-api/internal/service"
	appErrors "github.com/campushub/ums-api/pkg/errors"
	"github.com/campushub/ums-api/pkg/response"
)

// QuizHandler exposes quiz and attempt endpoints.
type QuizHandler struct {
	service *service.QuizService
}

// NewQuizHandler constructs QuizHandler.
func NewQuizHandler(svc *service.QuizService) *QuizHandler {
	return &QuizHandler{service: svc}
}

// Create godoc
// @Summary Create a quiz for a session course
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param payload body service.CreateQuizRequest true "Quiz payload"
// @Success 201 {object} response.Envelope
// @Router /quizzes [post]
func (h *QuizHandler) Create(c *gin.Context) {
	var req service.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	quiz, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, quiz)
}

// ListForStudent godoc
// @Summary List quizzes of a session course with the caller's attempt budget
// @Tags Quizzes
// @Produce json
// @Param sessionCourseId query string true "Session course ID"
// @Param studentId query string false "Student ID (staff only, defaults to caller)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /quizzes [get]
func (h *QuizHandler) ListForStudent(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	studentID := claims.UserID
	if id := c.Query("studentId"); id != "" && claims.Role != models.RoleStudent {
		studentID = id
	}

	quizzes, err := h.service.ListForStudent(c.Request.Context(), c.Query("sessionCourseId"), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quizzes, nil)
}

// StartAttempt godoc
// @Summary Start a quiz attempt
// @Tags Quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /quizzes/{id}/attempts [post]
func (h *QuizHandler) StartAttempt(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	attempt, err := h.service.StartAttempt(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, attempt)
}

// SubmitAttempt godoc
// @Summary Submit answers for an attempt
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param id path string true "Attempt ID"
// @Param payload body service.SubmitAttemptRequest true "Answers payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /quiz-attempts/{id}/submit [put]
func (h *QuizHandler) SubmitAttempt(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	attempt, err := h.service.SubmitAttempt(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attempt, nil)
}
