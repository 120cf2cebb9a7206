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

// AccountHandler exposes the account lifecycle endpoints for teacher,
// staff and admin records.
type AccountHandler struct {
	service *service.AccountService
}

// NewAccountHandler constructs AccountHandler.
func NewAccountHandler(svc *service.AccountService) *AccountHandler {
	return &AccountHandler{service: svc}
}

func accountTypeFromParam(c *gin.Context) (models.AccountType, bool) {
	switch models.AccountType(strings.ToUpper(c.Param("type"))) {
	case models.AccountTeacher:
		return models.AccountTeacher, true
	case models.AccountStaff:
		return models.AccountStaff, true
	case models.AccountAdmin:
		return models.AccountAdmin, true
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown account type"))
		return "", false
	}
}

// List godoc
// @Summary List accounts of a type
// @Tags Accounts
// @Produce json
// @Param type path string true "Account type" Enums(teacher, staff, admin)
// @Param search query string false "Search by name, email or registration number"
// @Param blocked query bool false "Filter by blocked flag"
// @Param deleted query bool false "List soft-deleted accounts instead"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /accounts/{type} [get]
func (h *AccountHandler) List(c *gin.Context) {
	accountType, ok := accountTypeFromParam(c)
	if !ok {
		return
	}

	var filter models.AccountFilter
	filter.Type = accountType
	filter.Search = c.Query("search")
	if raw := c.Query("blocked"); raw != "" {
		if blocked, err := strconv.ParseBool(raw); err == nil {
			filter.Blocked = &blocked
		}
	}
	if deleted, err := strconv.ParseBool(c.DefaultQuery("deleted", "false")); err == nil {
		filter.Deleted = deleted
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	accounts, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, accounts, pagination)
}

// Get godoc
// @Summary Get account
// @Tags Accounts
// @Produce json
// @Param type path string true "Account type"
// @Param id path string true "Account ID"
// @Success 200 {object} response.Envelope
// @Router /accounts/{type}/{id} [get]
func (h *AccountHandler) Get(c *gin.Context) {
	accountType, ok := accountTypeFromParam(c)
	if !ok {
		return
	}
	account, err := h.service.Get(c.Request.Context(), accountType, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, account, nil)
}

// Create godoc
// @Summary Create account
// @Tags Accounts
// @Accept json
// @Produce json
// @Param type path string true "Account type"
// @Param payload body service.CreateAccountRequest true "Account payload"
// @Success 201 {object} response.Envelope
// @Router /accounts/{type} [post]
func (h *AccountHandler) Create(c *gin.Context) {
	accountType, ok := accountTypeFromParam(c)
	if !ok {
		return
	}
	var req service.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	account, err := h.service.Create(c.Request.Context(), accountType, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, account)
}

// Update godoc
// @Summary Update account
// @Tags Accounts
// @Accept json
// @Produce json
// @Param type path string true "Account type"
// @Param id path string true "Account ID"
// @Param payload body service.UpdateAccountRequest true "Account payload"
// @Success 200 {object} response.Envelope
// @Router /accounts/{type}/{id} [put]
func (h *AccountHandler) Update(c *gin.Context) {
	accountType, ok := accountTypeFromParam(c)
	if !ok {
		return
	}
	var req service.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	account, err := h.service.Update(c.Request.Context(), accountType, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, account, nil)
}

// Block godoc
// @Summary Block account
// @Tags Accounts
// @Accept json
// @Produce json
// @Param type path string true "Account type"
// @Param id path string true "Account ID"
// @Param payload body service.BlockAccountRequest true "Block payload"
// @Success 200 {object} response.Envelope
// @Router /accounts/{type}/{id}/block [put]
func (h *AccountHandler) Block(c *gin.Context) {
	accountType, ok := accountTypeFromParam(c)
	if !ok {
		return
	}
	var req service.BlockAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	account, err := h.service.Block(c.Request.Context(), accountType, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, account, nil)
}

// Unblock godoc
// @Summary Unblock account
// @Tags Accounts
// @Produce json
// @Param type path string true "Account type"
// @Param id path string true "Account ID"
// @Success 200 {object} response.Envelope
// @Router /accounts/{type}/{id}/unblock [put]
func (h *AccountHandler) Unblock(c *gin.Context) {
	accountType, ok := accountTypeFromParam(c)
	if !ok {
		return
	}
	account, err := h.service.Unblock(c.Request.Context(), accountType, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, account, nil)
}

// RegisterIP godoc
// @Summary Register allowed IP for account
// @Tags Accounts
// @Accept json
// @Produce json
// @Param type path string true "Account type"
// @Param id path string true "Account ID"
// @Param payload body service.RegisterIPRequest true "IP payload"
// @Success 200 {object} response.Envelope
// @Router /accounts/{type}/{id}/ips [post]
func (h *AccountHandler) RegisterIP(c *gin.Context) {
	accountType, ok := accountTypeFromParam(c)
	if !ok {
		return
	}
	var req service.RegisterIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	account, err := h.service.RegisterIP(c.Request.Context(), accountType, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, account, nil)
}

// UnregisterIP godoc
// @Summary Remove allowed IP from account
// @Tags Accounts
// @Accept json
// @Produce json
// @Param type path string true "Account type"
// @Param id path string true "Account ID"
// @Param payload body service.RegisterIPRequest true "IP payload"
// @Success 200 {object} response.Envelope
// @Router /accounts/{type}/{id}/ips [delete]
func (h *AccountHandler) UnregisterIP(c *gin.Context) {
	accountType, ok := accountTypeFromParam(c)
	if !ok {
		return
	}
	var req service.RegisterIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	account, err := h.service.UnregisterIP(c.Request.Context(), accountType, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, account, nil)
}

// SoftDelete godoc
// @Summary Soft delete account
// @Tags Accounts
// @Produce json
// @Param type path string true "Account type"
// @Param id path string true "Account ID"
// @Success 204 {object} response.Envelope
// @Router /accounts/{type}/{id} [delete]
func (h *AccountHandler) SoftDelete(c *gin.Context) {
	accountType, ok := accountTypeFromParam(c)
	if !ok {
		return
	}
	if err := h.service.SoftDelete(c.Request.Context(), accountType, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Restore godoc
// @Summary Restore soft-deleted account
// @Tags Accounts
// @Produce json
// @Param type path string true "Account type"
// @Param id path string true "Account ID"
// @Success 204 {object} response.Envelope
// @Router /accounts/{type}/{id}/restore [put]
func (h *AccountHandler) Restore(c *gin.Context) {
	accountType, ok := accountTypeFromParam(c)
	if !ok {
		return
	}
	if err := h.service.Restore(c.Request.Context(), accountType, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// PermanentDelete godoc
// @Summary Permanently delete a soft-deleted account
// @Tags Accounts
// @Produce json
// @Param type path string true "Account type"
// @Param id path string true "Account ID"
// @Success 204 {object} response.Envelope
// @Router /accounts/{type}/{id}/permanent [delete]
func (h *AccountHandler) PermanentDelete(c *gin.Context) {
	accountType, ok := accountTypeFromParam(c)
	if !ok {
		return
	}
	if err := h.service.PermanentDelete(c.Request.Context(), accountType, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Profile godoc
// @Summary Get account profile
// @Tags Accounts
// @Produce json
// @Param type path string true "Account type"
// @Param id path string true "Account ID"
// @Success 200 {object} response.Envelope
// @Router /accounts/{type}/{id}/profile [get]
func (h *AccountHandler) Profile(c *gin.Context) {
	accountType, ok := accountTypeFromParam(c)
	if !ok {
		return
	}
	profile, err := h.service.Profile(c.Request.Context(), accountType, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// SaveProfile godoc
// @Summary Upsert account profile
// @Tags Accounts
// @Accept json
// @Produce json
// @Param type path string true "Account type"
// @Param id path string true "Account ID"
// @Param payload body models.Profile true "Profile payload"
// @Success 200 {object} response.Envelope
// @Router /accounts/{type}/{id}/profile [put]
func (h *AccountHandler) SaveProfile(c *gin.Context) {
	accountType, ok := accountTypeFromParam(c)
	if !ok {
		return
	}
	var profile models.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	saved, err := h.service.SaveProfile(c.Request.Context(), accountType, c.Param("id"), &profile)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, saved, nil)
}

// AddAddress godoc
// @Summary Add profile address
// @Tags Accounts
// @Accept json
// @Produce json
// @Param type path string true "Account type"
// @Param id path string true "Account ID"
// @Param payload body service.AddAddressRequest true "Address payload"
// @Success 201 {object} response.Envelope
// @Router /accounts/{type}/{id}/addresses [post]
func (h *AccountHandler) AddAddress(c *gin.Context) {
	accountType, ok := accountTypeFromParam(c)
	if !ok {
		return
	}
	var req service.AddAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	profile, err := h.service.AddAddress(c.Request.Context(), accountType, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, profile)
}

// SetPrimaryAddress godoc
// @Summary Mark address as primary
// @Tags Accounts
// @Produce json
// @Param type path string true "Account type"
// @Param id path string true "Account ID"
// @Param addressId path string true "Address ID"
// @Success 200 {object} response.Envelope
// @Router /accounts/{type}/{id}/addresses/{addressId}/primary [put]
func (h *AccountHandler) SetPrimaryAddress(c *gin.Context) {
	accountType, ok := accountTypeFromParam(c)
	if !ok {
		return
	}
	profile, err := h.service.SetPrimaryAddress(c.Request.Context(), accountType, c.Param("id"), c.Param("addressId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// RemoveAddress godoc
// @Summary Remove profile address
// @Tags Accounts
// @Produce json
// @Param type path string true "Account type"
// @Param id path string true "Account ID"
// @Param addressId path string true "Address ID"
// @Success 200 {object} response.Envelope
// @Router /accounts/{type}/{id}/addresses/{addressId} [delete]
func (h *AccountHandler) RemoveAddress(c *gin.Context) {
	accountType, ok := accountTypeFromParam(c)
	if !ok {
		return
	}
	profile, err := h.service.RemoveAddress(c.Request.Context(), accountType, c.Param("id"), c.Param("addressId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}
