package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/ums-api/internal/service"
	"github.com/campushub/ums-api/pkg/response"
)

// AlertHandler exposes system alert endpoints.
type AlertHandler struct {
	service *service.AlertService
}

// NewAlertHandler constructs AlertHandler.
func NewAlertHandler(svc *service.AlertService) *AlertHandler {
	return &AlertHandler{service: svc}
}

// List godoc
// @Summary List active alerts
// @Tags Alerts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /alerts [get]
func (h *AlertHandler) List(c *gin.Context) {
	alerts, err := h.service.Refresh(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alerts, nil)
}

// Dismiss godoc
// @Summary Dismiss an alert
// @Tags Alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 204 {object} response.Envelope
// @Router /alerts/{id} [delete]
func (h *AlertHandler) Dismiss(c *gin.Context) {
	if err := h.service.Dismiss(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DismissAll godoc
// @Summary Dismiss every active alert
// @Tags Alerts
// @Produce json
// @Success 204 {object} response.Envelope
// @Router /alerts [delete]
func (h *AlertHandler) DismissAll(c *gin.Context) {
	if err := h.service.DismissAll(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
