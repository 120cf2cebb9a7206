package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
	appErrors "github.com/campushub/ums-api/pkg/errors"
)

type mockBookRepo struct {
	books  map[string]*models.Book
	copies map[string]*models.BookCopy
	status map[string]models.CopyStatus
}

func (m *mockBookRepo) List(ctx context.Context, filter models.BookFilter) ([]models.Book, int, error) {
	return nil, 0, nil
}

func (m *mockBookRepo) FindByID(ctx context.Context, id string) (*models.Book, error) {
	if b, ok := m.books[id]; ok {
		return b, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBookRepo) Create(ctx context.Context, book *models.Book) error { return nil }
func (m *mockBookRepo) Update(ctx context.Context, book *models.Book) error { return nil }
func (m *mockBookRepo) Delete(ctx context.Context, id string) error         { return nil }

func (m *mockBookRepo) ListCopies(ctx context.Context, bookID string) ([]models.BookCopy, error) {
	var list []models.BookCopy
	for _, c := range m.copies {
		if c.BookID == bookID {
			list = append(list, *c)
		}
	}
	return list, nil
}

func (m *mockBookRepo) FindCopy(ctx context.Context, id string) (*models.BookCopy, error) {
	if c, ok := m.copies[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBookRepo) GenerateCopies(ctx context.Context, bookID string, count int, condition models.CopyCondition, location string) ([]models.BookCopy, error) {
	return make([]models.BookCopy, count), nil
}

func (m *mockBookRepo) UpdateCopyStatus(ctx context.Context, id string, status models.CopyStatus) error {
	if m.status == nil {
		m.status = make(map[string]models.CopyStatus)
	}
	m.status[id] = status
	return nil
}

type mockBorrowingRepo struct {
	loans        map[string]*models.Borrowing
	reservations []*models.Reservation
	activeCount  int
	created      *models.Borrowing
	returned     *models.Borrowing
	resolved     map[string]models.ReservationStatus
}

func (m *mockBorrowingRepo) List(ctx context.Context, filter models.BorrowingFilter) ([]models.BorrowingDetail, int, error) {
	return nil, 0, nil
}

func (m *mockBorrowingRepo) FindByID(ctx context.Context, id string) (*models.Borrowing, error) {
	if l, ok := m.loans[id]; ok {
		return l, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBorrowingRepo) FindActiveByCopy(ctx context.Context, copyID string) (*models.Borrowing, error) {
	return nil, sql.ErrNoRows
}

func (m *mockBorrowingRepo) CountActiveByBorrower(ctx context.Context, borrowerID string) (int, error) {
	return m.activeCount, nil
}

func (m *mockBorrowingRepo) Create(ctx context.Context, loan *models.Borrowing) error {
	loan.ID = "new-loan"
	m.created = loan
	return nil
}

func (m *mockBorrowingRepo) Return(ctx context.Context, loan *models.Borrowing) error {
	m.returned = loan
	return nil
}

func (m *mockBorrowingRepo) MarkFinePaid(ctx context.Context, id string) error { return nil }
func (m *mockBorrowingRepo) MarkOverdue(ctx context.Context) (int, error)      { return 0, nil }

func (m *mockBorrowingRepo) CreateReservation(ctx context.Context, reservation *models.Reservation) error {
	reservation.ID = "new-reservation"
	m.reservations = append(m.reservations, reservation)
	return nil
}

func (m *mockBorrowingRepo) FindPendingReservation(ctx context.Context, bookID, borrowerID string) (*models.Reservation, error) {
	for _, r := range m.reservations {
		if r.BookID == bookID && r.BorrowerID == borrowerID && r.Status == models.ReservationPending {
			return r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockBorrowingRepo) NextPendingReservation(ctx context.Context, bookID string) (*models.Reservation, error) {
	for _, r := range m.reservations {
		if r.BookID == bookID && r.Status == models.ReservationPending {
			return r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockBorrowingRepo) ResolveReservation(ctx context.Context, id string, status models.ReservationStatus) error {
	if m.resolved == nil {
		m.resolved = make(map[string]models.ReservationStatus)
	}
	m.resolved[id] = status
	for _, r := range m.reservations {
		if r.ID == id {
			r.Status = status
		}
	}
	return nil
}

type mockLibraryStudents struct {
	students map[string]*models.Student
}

func (m *mockLibraryStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockLibraryAccounts struct {
	accounts map[string]*models.Account
}

func (m *mockLibraryAccounts) FindByID(ctx context.Context, accountType models.AccountType, id string) (*models.Account, error) {
	if a, ok := m.accounts[id]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func newLibraryFixture(books *mockBookRepo, borrowings *mockBorrowingRepo) *LibraryService {
	students := &mockLibraryStudents{students: map[string]*models.Student{
		"s1": {ID: "s1", FullName: "Student One", Active: true},
		"s2": {ID: "s2", FullName: "Student Two", Active: true},
	}}
	accounts := &mockLibraryAccounts{accounts: map[string]*models.Account{}}
	config := LibraryConfig{DailyFineAmount: 2, MaxActiveLoans: 2}
	return NewLibraryService(books, borrowings, students, accounts, config, validator.New(), zap.NewNop())
}

func TestLibraryServiceCalculateFine(t *testing.T) {
	svc := newLibraryFixture(&mockBookRepo{}, &mockBorrowingRepo{})
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0.0, svc.CalculateFine(due, due))
	assert.Equal(t, 0.0, svc.CalculateFine(due, due.Add(-time.Hour)))
	// Any started day past due charges a full daily unit.
	assert.Equal(t, 2.0, svc.CalculateFine(due, due.Add(time.Hour)))
	assert.Equal(t, 2.0, svc.CalculateFine(due, due.Add(24*time.Hour)))
	assert.Equal(t, 4.0, svc.CalculateFine(due, due.Add(25*time.Hour)))
	assert.Equal(t, 6.0, svc.CalculateFine(due, due.Add(3*24*time.Hour)))
}

func TestLibraryServiceBorrowEnforcesLoanLimit(t *testing.T) {
	books := &mockBookRepo{copies: map[string]*models.BookCopy{
		"cp1": {ID: "cp1", BookID: "b1", Status: models.CopyAvailable},
	}}
	borrowings := &mockBorrowingRepo{activeCount: 2}
	svc := newLibraryFixture(books, borrowings)

	_, err := svc.Borrow(context.Background(), BorrowRequest{
		Copy:         models.Ref{ID: "cp1"},
		Borrower:     models.Ref{ID: "s1"},
		BorrowerType: models.RoleStudent,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestLibraryServiceBorrowReservedCopyOnlyForHolder(t *testing.T) {
	books := &mockBookRepo{copies: map[string]*models.BookCopy{
		"cp1": {ID: "cp1", BookID: "b1", Status: models.CopyReserved},
	}}
	borrowings := &mockBorrowingRepo{reservations: []*models.Reservation{
		{ID: "r1", BookID: "b1", BorrowerID: "s1", Status: models.ReservationPending},
	}}
	svc := newLibraryFixture(books, borrowings)

	_, err := svc.Borrow(context.Background(), BorrowRequest{
		Copy:         models.Ref{ID: "cp1"},
		Borrower:     models.Ref{ID: "s2"},
		BorrowerType: models.RoleStudent,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	loan, err := svc.Borrow(context.Background(), BorrowRequest{
		Copy:         models.Ref{ID: "cp1"},
		Borrower:     models.Ref{ID: "s1"},
		BorrowerType: models.RoleStudent,
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", loan.BorrowerID)
	assert.Equal(t, models.ReservationFulfilled, borrowings.resolved["r1"])
}

func TestLibraryServiceReturnComputesFineAndHoldsCopy(t *testing.T) {
	books := &mockBookRepo{copies: map[string]*models.BookCopy{
		"cp1": {ID: "cp1", BookID: "b1", Status: models.CopyBorrowed},
	}}
	borrowings := &mockBorrowingRepo{
		loans: map[string]*models.Borrowing{
			"l1": {
				ID:      "l1",
				CopyID:  "cp1",
				Status:  models.BorrowingOverdue,
				DueDate: time.Now().UTC().Add(-30 * time.Hour),
			},
		},
		reservations: []*models.Reservation{
			{ID: "r1", BookID: "b1", BorrowerID: "s2", Status: models.ReservationPending},
		},
	}
	svc := newLibraryFixture(books, borrowings)

	loan, err := svc.Return(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, models.BorrowingReturned, loan.Status)
	assert.Equal(t, 4.0, loan.FineAmount)
	assert.Equal(t, models.CopyReserved, books.status["cp1"])
}

func TestLibraryServiceReserveBlocksWhenCopiesAvailable(t *testing.T) {
	books := &mockBookRepo{
		books: map[string]*models.Book{"b1": {ID: "b1"}},
		copies: map[string]*models.BookCopy{
			"cp1": {ID: "cp1", BookID: "b1", Status: models.CopyAvailable},
		},
	}
	svc := newLibraryFixture(books, &mockBorrowingRepo{})

	_, err := svc.Reserve(context.Background(), ReserveRequest{
		Book:         models.Ref{ID: "b1"},
		Borrower:     models.Ref{ID: "s1"},
		BorrowerType: models.RoleStudent,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}
