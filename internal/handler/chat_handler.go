package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campushub/ums-api/internal/models"
	"github.com/campushub/ums-api/internal/service"
	appErrors "github.com/campushub/ums-api/pkg/errors"
	"github.com/campushub/ums-api/pkg/response"
)

// ChatHandler exposes group messaging endpoints.
type ChatHandler struct {
	service *service.ChatService
}

// NewChatHandler constructs ChatHandler.
func NewChatHandler(svc *service.ChatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// ListGroups godoc
// @Summary List chat groups
// @Tags Chat
// @Produce json
// @Param type query string false "Filter by group type (BATCH or COURSE)"
// @Success 200 {object} response.Envelope
// @Router /chat/groups [get]
func (h *ChatHandler) ListGroups(c *gin.Context) {
	groupType := models.ChatGroupType(strings.ToUpper(c.Query("type")))
	groups, err := h.service.ListGroups(c.Request.Context(), groupType)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// EnsureBatchGroup godoc
// @Summary Ensure a batch chat group exists
// @Tags Chat
// @Accept json
// @Produce json
// @Param payload body handler.EnsureBatchGroupRequest true "Batch group payload"
// @Success 200 {object} response.Envelope
// @Router /chat/groups/batch [post]
func (h *ChatHandler) EnsureBatchGroup(c *gin.Context) {
	var req EnsureBatchGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	group, err := h.service.EnsureBatchGroup(c.Request.Context(), req.BatchID, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// EnsureBatchGroupRequest is the payload for EnsureBatchGroup.
type EnsureBatchGroupRequest struct {
	BatchID string `json:"batch_id" binding:"required"`
	Name    string `json:"name" binding:"required"`
}

// Messages godoc
// @Summary List messages in a group
// @Description Returns the page of messages posted before the given timestamp, newest first.
// @Tags Chat
// @Produce json
// @Param id path string true "Group ID"
// @Param before query string false "RFC3339 timestamp cursor"
// @Success 200 {object} response.Envelope
// @Router /chat/groups/{id}/messages [get]
func (h *ChatHandler) Messages(c *gin.Context) {
	before := time.Now()
	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid before timestamp"))
			return
		}
		before = parsed
	}

	messages, err := h.service.Messages(c.Request.Context(), c.Param("id"), before)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, nil)
}

// Post godoc
// @Summary Post a message to a group
// @Tags Chat
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param payload body service.PostMessageRequest true "Message payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /chat/groups/{id}/messages [post]
func (h *ChatHandler) Post(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	sender := models.UserInfo{
		ID:       claims.UserID,
		Email:    claims.Email,
		FullName: claims.FullName,
		Role:     claims.Role,
	}
	message, err := h.service.Post(c.Request.Context(), c.Param("id"), sender, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, message)
}
