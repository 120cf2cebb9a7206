package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campushub/ums-api/internal/models"
	"github.com/campushub/ums-api/internal/service"
	appErrors "github.com/campushub/ums-api/pkg/errors"
	"github.com/campushub/ums-api/pkg/response"
)

// CommitteeHandler exposes grade approval pipeline endpoints.
type CommitteeHandler struct {
	service *service.CommitteeService
}

// NewCommitteeHandler constructs CommitteeHandler.
func NewCommitteeHandler(svc *service.CommitteeService) *CommitteeHandler {
	return &CommitteeHandler{service: svc}
}

// List godoc
// @Summary List course results of a batch grouped by semester
// @Tags Committee
// @Produce json
// @Param batchId query string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Router /committee/results [get]
func (h *CommitteeHandler) List(c *gin.Context) {
	groups, err := h.service.List(c.Request.Context(), c.Query("batchId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// TransitionRequest is the payload for Transition.
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// Transition godoc
// @Summary Move a course result through the approval pipeline
// @Tags Committee
// @Accept json
// @Produce json
// @Param id path string true "Course result ID"
// @Param payload body handler.TransitionRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Router /committee/results/{id}/status [put]
func (h *CommitteeHandler) Transition(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.service.Transition(c.Request.Context(), c.Param("id"), models.CommitteeStatus(strings.ToUpper(req.Status)))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
