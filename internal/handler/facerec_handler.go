package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/ums-api/internal/service"
	"github.com/campushub/ums-api/pkg/response"
)

type trainingArmer interface {
	Arm()
}

// FaceRecHandler proxies the face recognition edge service.
type FaceRecHandler struct {
	service *service.FaceRecService
	watcher trainingArmer
}

// NewFaceRecHandler constructs FaceRecHandler. The watcher may be nil
// when status polling is not wanted.
func NewFaceRecHandler(svc *service.FaceRecService, watcher trainingArmer) *FaceRecHandler {
	return &FaceRecHandler{service: svc, watcher: watcher}
}

// Status godoc
// @Summary Current training status
// @Tags FaceRecognition
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /facerec/status [get]
func (h *FaceRecHandler) Status(c *gin.Context) {
	status, err := h.service.Status(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Metrics godoc
// @Summary Last training run metrics
// @Tags FaceRecognition
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /facerec/metrics [get]
func (h *FaceRecHandler) Metrics(c *gin.Context) {
	metrics, err := h.service.Metrics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, metrics, nil)
}

// Students godoc
// @Summary Students with enrolled face encodings
// @Tags FaceRecognition
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /facerec/students [get]
func (h *FaceRecHandler) Students(c *gin.Context) {
	students, err := h.service.Students(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// DeleteStudent godoc
// @Summary Remove a student's face encodings
// @Tags FaceRecognition
// @Produce json
// @Param id path string true "Student ID"
// @Success 204 {object} response.Envelope
// @Router /facerec/students/{id} [delete]
func (h *FaceRecHandler) DeleteStudent(c *gin.Context) {
	if err := h.service.DeleteStudent(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Train godoc
// @Summary Kick off a training run
// @Description Set fresh to true to retrain from scratch instead of
// incrementally.
// @Tags FaceRecognition
// @Accept json
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /facerec/train [post]
func (h *FaceRecHandler) Train(c *gin.Context) {
	var req struct {
		Fresh bool `json:"fresh"`
	}
	// The body is optional; absence means an incremental run.
	_ = c.ShouldBindJSON(&req)

	result, err := h.service.Train(c.Request.Context(), req.Fresh)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.watcher != nil {
		h.watcher.Arm()
	}
	response.JSON(c, http.StatusAccepted, result, nil)
}
