package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/ums-api/internal/service"
	"github.com/campushub/ums-api/pkg/response"
)

// ReferenceHandler serves the cached reference collections.
type ReferenceHandler struct {
	service *service.ReferenceService
}

// NewReferenceHandler constructs ReferenceHandler.
func NewReferenceHandler(svc *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{service: svc}
}

// Departments godoc
// @Summary List departments
// @Tags References
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *ReferenceHandler) Departments(c *gin.Context) {
	departments, err := h.service.Departments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, departments, nil)
}

// Sessions godoc
// @Summary List academic sessions
// @Tags References
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *ReferenceHandler) Sessions(c *gin.Context) {
	sessions, err := h.service.Sessions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// Batches godoc
// @Summary List batches
// @Tags References
// @Produce json
// @Param departmentId query string false "Filter by department"
// @Success 200 {object} response.Envelope
// @Router /batches [get]
func (h *ReferenceHandler) Batches(c *gin.Context) {
	batches, err := h.service.Batches(c.Request.Context(), c.Query("departmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batches, nil)
}

// Batch godoc
// @Summary Get batch
// @Tags References
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Router /batches/{id} [get]
func (h *ReferenceHandler) Batch(c *gin.Context) {
	batch, err := h.service.Batch(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batch, nil)
}
