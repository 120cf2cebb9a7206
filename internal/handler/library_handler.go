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

// LibraryHandler exposes catalog and circulation endpoints.
type LibraryHandler struct {
	service *service.LibraryService
}

// NewLibraryHandler constructs LibraryHandler.
func NewLibraryHandler(svc *service.LibraryService) *LibraryHandler {
	return &LibraryHandler{service: svc}
}

// ListBooks godoc
// @Summary List catalog books
// @Tags Library
// @Produce json
// @Param search query string false "Search title, author or ISBN"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /library/books [get]
func (h *LibraryHandler) ListBooks(c *gin.Context) {
	var filter models.BookFilter
	filter.Search = c.Query("search")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	books, pagination, err := h.service.ListBooks(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, books, pagination)
}

// GetBook godoc
// @Summary Get book with copies
// @Tags Library
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} response.Envelope
// @Router /library/books/{id} [get]
func (h *LibraryHandler) GetBook(c *gin.Context) {
	book, copies, err := h.service.GetBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"book": book, "copies": copies}, nil)
}

// CreateBook godoc
// @Summary Create book
// @Tags Library
// @Accept json
// @Produce json
// @Param payload body service.BookRequest true "Book payload"
// @Success 201 {object} response.Envelope
// @Router /library/books [post]
func (h *LibraryHandler) CreateBook(c *gin.Context) {
	var req service.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	book, err := h.service.CreateBook(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, book)
}

// UpdateBook godoc
// @Summary Update book
// @Tags Library
// @Accept json
// @Produce json
// @Param id path string true "Book ID"
// @Param payload body service.BookRequest true "Book payload"
// @Success 200 {object} response.Envelope
// @Router /library/books/{id} [put]
func (h *LibraryHandler) UpdateBook(c *gin.Context) {
	var req service.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	book, err := h.service.UpdateBook(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, book, nil)
}

// DeleteBook godoc
// @Summary Delete book
// @Tags Library
// @Produce json
// @Param id path string true "Book ID"
// @Success 204 {object} response.Envelope
// @Router /library/books/{id} [delete]
func (h *LibraryHandler) DeleteBook(c *gin.Context) {
	if err := h.service.DeleteBook(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GenerateCopies godoc
// @Summary Bulk-generate physical copies
// @Tags Library
// @Accept json
// @Produce json
// @Param id path string true "Book ID"
// @Param payload body service.GenerateCopiesRequest true "Generation payload"
// @Success 201 {object} response.Envelope
// @Router /library/books/{id}/copies [post]
func (h *LibraryHandler) GenerateCopies(c *gin.Context) {
	var req service.GenerateCopiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	copies, err := h.service.GenerateCopies(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, copies)
}

// ListBorrowings godoc
// @Summary List borrowings
// @Tags Library
// @Produce json
// @Param borrowerId query string false "Filter by borrower"
// @Param borrowerType query string false "Filter by borrower type"
// @Param status query string false "Filter by loan status"
// @Param overdue query bool false "Only overdue loans"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /library/borrowings [get]
func (h *LibraryHandler) ListBorrowings(c *gin.Context) {
	var filter models.BorrowingFilter
	filter.BorrowerID = c.Query("borrowerId")
	filter.BorrowerType = strings.ToUpper(c.Query("borrowerType"))
	filter.Status = strings.ToUpper(c.Query("status"))
	if overdue, err := strconv.ParseBool(c.DefaultQuery("overdue", "false")); err == nil {
		filter.Overdue = overdue
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	loans, pagination, err := h.service.ListBorrowings(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loans, pagination)
}

// Borrow godoc
// @Summary Issue a copy to a borrower
// @Tags Library
// @Accept json
// @Produce json
// @Param payload body service.BorrowRequest true "Borrow payload"
// @Success 201 {object} response.Envelope
// @Router /library/borrowings [post]
func (h *LibraryHandler) Borrow(c *gin.Context) {
	var req service.BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	loan, err := h.service.Borrow(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, loan)
}

// Return godoc
// @Summary Return a borrowed copy
// @Tags Library
// @Produce json
// @Param id path string true "Borrowing ID"
// @Success 200 {object} response.Envelope
// @Router /library/borrowings/{id}/return [put]
func (h *LibraryHandler) Return(c *gin.Context) {
	loan, err := h.service.Return(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loan, nil)
}

// PayFine godoc
// @Summary Settle the fine on a loan
// @Tags Library
// @Produce json
// @Param id path string true "Borrowing ID"
// @Success 200 {object} response.Envelope
// @Router /library/borrowings/{id}/pay-fine [put]
func (h *LibraryHandler) PayFine(c *gin.Context) {
	loan, err := h.service.PayFine(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loan, nil)
}

// Reserve godoc
// @Summary Reserve a book
// @Tags Library
// @Accept json
// @Produce json
// @Param payload body service.ReserveRequest true "Reservation payload"
// @Success 201 {object} response.Envelope
// @Router /library/reservations [post]
func (h *LibraryHandler) Reserve(c *gin.Context) {
	var req service.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	reservation, err := h.service.Reserve(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reservation)
}

// CancelReservation godoc
// @Summary Cancel a pending reservation
// @Tags Library
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 204 {object} response.Envelope
// @Router /library/reservations/{id} [delete]
func (h *LibraryHandler) CancelReservation(c *gin.Context) {
	if err := h.service.CancelReservation(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
