package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
	appErrors "github.com/campushub/ums-api/pkg/errors"
)

type bookRepository interface {
	List(ctx context.Context, filter models.BookFilter) ([]models.Book, int, error)
	FindByID(ctx context.Context, id string) (*models.Book, error)
	Create(ctx context.Context, book *models.Book) error
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id string) error
	ListCopies(ctx context.Context, bookID string) ([]models.BookCopy, error)
	FindCopy(ctx context.Context, id string) (*models.BookCopy, error)
	GenerateCopies(ctx context.Context, bookID string, count int, condition models.CopyCondition, location string) ([]models.BookCopy, error)
	UpdateCopyStatus(ctx context.Context, id string, status models.CopyStatus) error
}

type borrowingRepository interface {
	List(ctx context.Context, filter models.BorrowingFilter) ([]models.BorrowingDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Borrowing, error)
	FindActiveByCopy(ctx context.Context, copyID string) (*models.Borrowing, error)
	CountActiveByBorrower(ctx context.Context, borrowerID string) (int, error)
	Create(ctx context.Context, loan *models.Borrowing) error
	Return(ctx context.Context, loan *models.Borrowing) error
	MarkFinePaid(ctx context.Context, id string) error
	MarkOverdue(ctx context.Context) (int, error)
	CreateReservation(ctx context.Context, reservation *models.Reservation) error
	FindPendingReservation(ctx context.Context, bookID, borrowerID string) (*models.Reservation, error)
	NextPendingReservation(ctx context.Context, bookID string) (*models.Reservation, error)
	ResolveReservation(ctx context.Context, id string, status models.ReservationStatus) error
}

type libraryStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type libraryAccountReader interface {
	FindByID(ctx context.Context, accountType models.AccountType, id string) (*models.Account, error)
}

// LibraryConfig tunes circulation policy.
type LibraryConfig struct {
	LoanPeriod      time.Duration
	DailyFineAmount float64
	MaxCopiesPerGen int
	MaxActiveLoans  int
}

// BookRequest describes book create/update payload.
type BookRequest struct {
	Title       string  `json:"title" validate:"required"`
	Author      string  `json:"author" validate:"required"`
	ISBN        string  `json:"isbn" validate:"required"`
	Publisher   *string `json:"publisher"`
	PublishYear *int    `json:"publish_year"`
}

// GenerateCopiesRequest bulk-creates physical copies.
type GenerateCopiesRequest struct {
	Count     int    `json:"count" validate:"required,min=1"`
	Condition string `json:"condition" validate:"omitempty,oneof=NEW GOOD WORN DAMAGED"`
	Location  string `json:"location"`
}

// BorrowRequest issues a copy to a borrower.
type BorrowRequest struct {
	Copy         models.Ref      `json:"copy" validate:"required"`
	Borrower     models.Ref      `json:"borrower" validate:"required"`
	BorrowerType models.UserRole `json:"borrower_type" validate:"required,oneof=STUDENT TEACHER STAFF ADMIN"`
}

// ReserveRequest queues a borrower for a book.
type ReserveRequest struct {
	Book         models.Ref      `json:"book" validate:"required"`
	Borrower     models.Ref      `json:"borrower" validate:"required"`
	BorrowerType models.UserRole `json:"borrower_type" validate:"required,oneof=STUDENT TEACHER STAFF ADMIN"`
}

// borrowerLookup resolves one borrower role to a normalized view.
type borrowerLookup func(ctx context.Context, id string) (*models.BorrowerInfo, error)

// LibraryService runs the catalog and circulation workflows.
type LibraryService struct {
	books      bookRepository
	borrowings borrowingRepository
	config     LibraryConfig
	validator  *validator.Validate
	logger     *zap.Logger

	// borrowers dispatches on role so new borrower kinds plug in
	// without touching circulation logic.
	borrowers map[models.UserRole]borrowerLookup
}

// NewLibraryService constructs LibraryService.
func NewLibraryService(books bookRepository, borrowings borrowingRepository, students libraryStudentReader, accounts libraryAccountReader, config LibraryConfig, validate *validator.Validate, logger *zap.Logger) *LibraryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.LoanPeriod <= 0 {
		config.LoanPeriod = 14 * 24 * time.Hour
	}
	if config.DailyFineAmount <= 0 {
		config.DailyFineAmount = 1
	}
	if config.MaxCopiesPerGen <= 0 {
		config.MaxCopiesPerGen = 100
	}
	if config.MaxActiveLoans <= 0 {
		config.MaxActiveLoans = 5
	}

	s := &LibraryService{
		books:      books,
		borrowings: borrowings,
		config:     config,
		validator:  validate,
		logger:     logger,
	}

	accountLookup := func(accountType models.AccountType) borrowerLookup {
		return func(ctx context.Context, id string) (*models.BorrowerInfo, error) {
			account, err := accounts.FindByID(ctx, accountType, id)
			if err != nil {
				return nil, err
			}
			return &models.BorrowerInfo{
				ID:       account.ID,
				FullName: account.FullName,
				Type:     models.UserRole(account.Type),
				Active:   !account.Deleted() && !account.IsBlocked,
			}, nil
		}
	}
	s.borrowers = map[models.UserRole]borrowerLookup{
		models.RoleStudent: func(ctx context.Context, id string) (*models.BorrowerInfo, error) {
			student, err := students.FindByID(ctx, id)
			if err != nil {
				return nil, err
			}
			return &models.BorrowerInfo{
				ID:       student.ID,
				FullName: student.FullName,
				Type:     models.RoleStudent,
				Active:   student.Active,
			}, nil
		},
		models.RoleTeacher: accountLookup(models.AccountTeacher),
		models.RoleStaff:   accountLookup(models.AccountStaff),
		models.RoleAdmin:   accountLookup(models.AccountAdmin),
	}
	return s
}

// ResolveBorrower dispatches the lookup for a role.
func (s *LibraryService) ResolveBorrower(ctx context.Context, role models.UserRole, id string) (*models.BorrowerInfo, error) {
	lookup, ok := s.borrowers[role]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported borrower type")
	}
	borrower, err := lookup(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "borrower not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load borrower")
	}
	return borrower, nil
}

// ListBooks returns catalog titles with pagination metadata.
func (s *LibraryService) ListBooks(ctx context.Context, filter models.BookFilter) ([]models.Book, *models.Pagination, error) {
	books, total, err := s.books.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list books")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return books, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// GetBook returns one title with its copies.
func (s *LibraryService) GetBook(ctx context.Context, id string) (*models.Book, []models.BookCopy, error) {
	book, err := s.books.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "book not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load book")
	}
	copies, err := s.books.ListCopies(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load copies")
	}
	return book, copies, nil
}

// CreateBook adds a catalog title.
func (s *LibraryService) CreateBook(ctx context.Context, req BookRequest) (*models.Book, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid book payload")
	}
	book := &models.Book{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		Publisher:   req.Publisher,
		PublishYear: req.PublishYear,
	}
	if err := s.books.Create(ctx, book); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create book")
	}
	return book, nil
}

// UpdateBook modifies a catalog title.
func (s *LibraryService) UpdateBook(ctx context.Context, id string, req BookRequest) (*models.Book, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid book payload")
	}
	book, _, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	book.Title = req.Title
	book.Author = req.Author
	book.ISBN = req.ISBN
	book.Publisher = req.Publisher
	book.PublishYear = req.PublishYear
	if err := s.books.Update(ctx, book); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update book")
	}
	return book, nil
}

// DeleteBook removes a title unless copies are on loan.
func (s *LibraryService) DeleteBook(ctx context.Context, id string) error {
	_, copies, err := s.GetBook(ctx, id)
	if err != nil {
		return err
	}
	for _, copy := range copies {
		if copy.Status == models.CopyBorrowed {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "book has copies on loan")
		}
	}
	if err := s.books.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete book")
	}
	return nil
}

// GenerateCopies bulk-creates copies for a title. Copy numbers
// continue from the current maximum.
func (s *LibraryService) GenerateCopies(ctx context.Context, bookID string, req GenerateCopiesRequest) ([]models.BookCopy, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid copy generation payload")
	}
	if req.Count > s.config.MaxCopiesPerGen {
		return nil, appErrors.Clone(appErrors.ErrValidation, "copy count exceeds generation limit")
	}
	if _, _, err := s.GetBook(ctx, bookID); err != nil {
		return nil, err
	}

	condition := models.CopyCondition(req.Condition)
	if condition == "" {
		condition = models.ConditionNew
	}
	copies, err := s.books.GenerateCopies(ctx, bookID, req.Count, condition, req.Location)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate copies")
	}
	s.logger.Info("book copies generated", zap.String("book_id", bookID), zap.Int("count", len(copies)))
	return copies, nil
}

// ListBorrowings returns loans with pagination metadata.
func (s *LibraryService) ListBorrowings(ctx context.Context, filter models.BorrowingFilter) ([]models.BorrowingDetail, *models.Pagination, error) {
	loans, total, err := s.borrowings.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list borrowings")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return loans, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Borrow issues a copy to a borrower.
func (s *LibraryService) Borrow(ctx context.Context, req BorrowRequest) (*models.Borrowing, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid borrow payload")
	}

	borrower, err := s.ResolveBorrower(ctx, req.BorrowerType, req.Borrower.ResolveID())
	if err != nil {
		return nil, err
	}
	if !borrower.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "borrower is not active")
	}

	active, err := s.borrowings.CountActiveByBorrower(ctx, borrower.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count active loans")
	}
	if active >= s.config.MaxActiveLoans {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "borrower reached the active loan limit")
	}

	copy, err := s.books.FindCopy(ctx, req.Copy.ResolveID())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "copy not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load copy")
	}
	switch copy.Status {
	case models.CopyAvailable:
	case models.CopyReserved:
		// A reserved copy may only go to the borrower holding the
		// oldest pending reservation.
		reservation, err := s.borrowings.NextPendingReservation(ctx, copy.BookID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservation")
		}
		if reservation == nil || reservation.BorrowerID != borrower.ID {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "copy is reserved for another borrower")
		}
		if err := s.borrowings.ResolveReservation(ctx, reservation.ID, models.ReservationFulfilled); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve reservation")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "copy is not available")
	}

	now := time.Now().UTC()
	loan := &models.Borrowing{
		CopyID:       copy.ID,
		BorrowerID:   borrower.ID,
		BorrowerType: req.BorrowerType,
		Status:       models.BorrowingActive,
		BorrowedAt:   now,
		DueDate:      now.Add(s.config.LoanPeriod),
	}
	if err := s.borrowings.Create(ctx, loan); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "copy was taken concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create borrowing")
	}
	return loan, nil
}

// Return closes a loan and computes the overdue fine, one daily unit
// per full or partial day past due.
func (s *LibraryService) Return(ctx context.Context, borrowingID string) (*models.Borrowing, error) {
	loan, err := s.borrowings.FindByID(ctx, borrowingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "borrowing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load borrowing")
	}
	if loan.Status == models.BorrowingReturned {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "borrowing already returned")
	}

	now := time.Now().UTC()
	loan.Status = models.BorrowingReturned
	loan.ReturnDate = &now
	loan.FineAmount = s.CalculateFine(loan.DueDate, now)
	if err := s.borrowings.Return(ctx, loan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to return borrowing")
	}

	// Hold the copy for the next reservation in line, if any.
	reservation, err := s.nextReservationForCopy(ctx, loan.CopyID)
	if err != nil {
		s.logger.Warn("failed to check reservations on return", zap.Error(err))
	} else if reservation != nil {
		if err := s.books.UpdateCopyStatus(ctx, loan.CopyID, models.CopyReserved); err != nil {
			s.logger.Warn("failed to hold copy for reservation", zap.Error(err))
		}
	}
	return loan, nil
}

func (s *LibraryService) nextReservationForCopy(ctx context.Context, copyID string) (*models.Reservation, error) {
	copy, err := s.books.FindCopy(ctx, copyID)
	if err != nil {
		return nil, err
	}
	reservation, err := s.borrowings.NextPendingReservation(ctx, copy.BookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return reservation, nil
}

// CalculateFine charges the configured daily amount per started day
// past the due date.
func (s *LibraryService) CalculateFine(dueDate, returnedAt time.Time) float64 {
	if !returnedAt.After(dueDate) {
		return 0
	}
	days := math.Ceil(returnedAt.Sub(dueDate).Hours() / 24)
	return days * s.config.DailyFineAmount
}

// PayFine settles the fine on a returned loan.
func (s *LibraryService) PayFine(ctx context.Context, borrowingID string) (*models.Borrowing, error) {
	loan, err := s.borrowings.FindByID(ctx, borrowingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "borrowing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load borrowing")
	}
	if loan.FineAmount <= 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no fine to pay")
	}
	if loan.FinePaid {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "fine already paid")
	}
	if err := s.borrowings.MarkFinePaid(ctx, loan.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark fine paid")
	}
	loan.FinePaid = true
	return loan, nil
}

// SweepOverdue flips active loans past their due date to overdue.
func (s *LibraryService) SweepOverdue(ctx context.Context) (int, error) {
	count, err := s.borrowings.MarkOverdue(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sweep overdue loans")
	}
	if count > 0 {
		s.logger.Info("loans marked overdue", zap.Int("count", count))
	}
	return count, nil
}

// Reserve queues a borrower for a book with no available copies.
func (s *LibraryService) Reserve(ctx context.Context, req ReserveRequest) (*models.Reservation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reservation payload")
	}
	borrower, err := s.ResolveBorrower(ctx, req.BorrowerType, req.Borrower.ResolveID())
	if err != nil {
		return nil, err
	}
	if !borrower.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "borrower is not active")
	}

	bookID := req.Book.ResolveID()
	_, copies, err := s.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	for _, copy := range copies {
		if copy.Status == models.CopyAvailable {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "copies are available, borrow directly")
		}
	}

	if _, err := s.borrowings.FindPendingReservation(ctx, bookID, borrower.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "reservation already pending")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate reservation")
	}

	reservation := &models.Reservation{
		BookID:       bookID,
		BorrowerID:   borrower.ID,
		BorrowerType: req.BorrowerType,
		Status:       models.ReservationPending,
	}
	if err := s.borrowings.CreateReservation(ctx, reservation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reservation")
	}
	return reservation, nil
}

// CancelReservation withdraws a pending reservation.
func (s *LibraryService) CancelReservation(ctx context.Context, id string) error {
	if err := s.borrowings.ResolveReservation(ctx, id, models.ReservationCancelled); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel reservation")
	}
	return nil
}
