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

// WorkspaceHandler exposes collaboration workspace endpoints.
type WorkspaceHandler struct {
	service *service.WorkspaceService
}

// NewWorkspaceHandler constructs WorkspaceHandler.
func NewWorkspaceHandler(svc *service.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{service: svc}
}

// List godoc
// @Summary List workspaces
// @Tags Workspaces
// @Produce json
// @Param status query string false "Filter by status (ACTIVE or ARCHIVED)"
// @Success 200 {object} response.Envelope
// @Router /workspaces [get]
func (h *WorkspaceHandler) List(c *gin.Context) {
	status := models.WorkspaceStatus(strings.ToUpper(c.Query("status")))
	workspaces, err := h.service.List(c.Request.Context(), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workspaces, nil)
}

// Pending godoc
// @Summary List session courses still missing a workspace
// @Tags Workspaces
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /workspaces/pending [get]
func (h *WorkspaceHandler) Pending(c *gin.Context) {
	pending, err := h.service.Pending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pending, nil)
}

// Create godoc
// @Summary Create workspace for a session course
// @Tags Workspaces
// @Accept json
// @Produce json
// @Param payload body service.CreateWorkspaceRequest true "Workspace payload"
// @Success 201 {object} response.Envelope
// @Router /workspaces [post]
func (h *WorkspaceHandler) Create(c *gin.Context) {
	var req service.CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	workspace, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, workspace)
}

// Archive godoc
// @Summary Archive a workspace
// @Tags Workspaces
// @Produce json
// @Param id path string true "Workspace ID"
// @Success 200 {object} response.Envelope
// @Router /workspaces/{id}/archive [put]
func (h *WorkspaceHandler) Archive(c *gin.Context) {
	workspace, err := h.service.Archive(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workspace, nil)
}

// Reactivate godoc
// @Summary Reactivate an archived workspace
// @Tags Workspaces
// @Produce json
// @Param id path string true "Workspace ID"
// @Success 200 {object} response.Envelope
// @Router /workspaces/{id}/reactivate [put]
func (h *WorkspaceHandler) Reactivate(c *gin.Context) {
	workspace, err := h.service.Reactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workspace, nil)
}
