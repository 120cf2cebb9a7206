package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/ums-api/internal/service"
	"github.com/campushub/ums-api/pkg/response"
)

// ProposalHandler exposes AI schedule proposal endpoints.
type ProposalHandler struct {
	service *service.ProposalService
}

// NewProposalHandler constructs ProposalHandler.
func NewProposalHandler(svc *service.ProposalService) *ProposalHandler {
	return &ProposalHandler{service: svc}
}

// List godoc
// @Summary List schedule proposals for a session
// @Tags Proposals
// @Produce json
// @Param sessionId query string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /proposals [get]
func (h *ProposalHandler) List(c *gin.Context) {
	proposals, err := h.service.ListBySession(c.Request.Context(), c.Query("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposals, nil)
}

// Get godoc
// @Summary Get a proposal with its slots grouped per batch
// @Tags Proposals
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id} [get]
func (h *ProposalHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Approve godoc
// @Summary Approve a proposal and materialize its schedules
// @Tags Proposals
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id}/approve [put]
func (h *ProposalHandler) Approve(c *gin.Context) {
	result, err := h.service.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Reject godoc
// @Summary Reject a pending proposal
// @Tags Proposals
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 204 {object} response.Envelope
// @Router /proposals/{id}/reject [put]
func (h *ProposalHandler) Reject(c *gin.Context) {
	if err := h.service.Reject(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
