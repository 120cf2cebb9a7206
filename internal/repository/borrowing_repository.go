package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/ums-api/internal/models"
)

// BorrowingRepository manages loans and reservations.
type BorrowingRepository struct {
	db *sqlx.DB
}

// NewBorrowingRepository constructs a BorrowingRepository.
func NewBorrowingRepository(db *sqlx.DB) *BorrowingRepository {
	return &BorrowingRepository{db: db}
}

const borrowingColumns = `b.id, b.copy_id, b.borrower_id, b.borrower_type, b.status,
	b.borrowed_at, b.due_date, b.return_date, b.fine_amount, b.fine_paid, b.created_at, b.updated_at`

// List returns joined borrowing rows matching the filter plus total count.
func (r *BorrowingRepository) List(ctx context.Context, filter models.BorrowingFilter) ([]models.BorrowingDetail, int, error) {
	base := `FROM borrowings b
		JOIN book_copies bc ON bc.id = b.copy_id
		JOIN books bk ON bk.id = bc.book_id
		WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.BorrowerID != "" {
		conditions = append(conditions, fmt.Sprintf("b.borrower_id = $%d", len(args)+1))
		args = append(args, filter.BorrowerID)
	}
	if filter.BorrowerType != "" {
		conditions = append(conditions, fmt.Sprintf("b.borrower_type = $%d", len(args)+1))
		args = append(args, filter.BorrowerType)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("b.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Overdue {
		conditions = append(conditions, fmt.Sprintf("b.status = '%s' AND b.due_date < NOW()", models.BorrowingActive))
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s, bk.title AS book_title, bc.copy_number,
		COALESCE((SELECT full_name FROM accounts a WHERE a.id = b.borrower_id),
			(SELECT full_name FROM students s WHERE s.id = b.borrower_id), '') AS borrower_name
		%s ORDER BY b.borrowed_at DESC LIMIT %d OFFSET %d`, borrowingColumns, base, size, offset)
	var loans []models.BorrowingDetail
	if err := r.db.SelectContext(ctx, &loans, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list borrowings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count borrowings: %w", err)
	}

	return loans, total, nil
}

// FindByID fetches a borrowing by ID.
func (r *BorrowingRepository) FindByID(ctx context.Context, id string) (*models.Borrowing, error) {
	const query = `SELECT id, copy_id, borrower_id, borrower_type, status, borrowed_at, due_date,
		return_date, fine_amount, fine_paid, created_at, updated_at FROM borrowings WHERE id = $1`
	var loan models.Borrowing
	if err := r.db.GetContext(ctx, &loan, query, id); err != nil {
		return nil, err
	}
	return &loan, nil
}

// FindActiveByCopy returns the active loan of a copy, if any.
func (r *BorrowingRepository) FindActiveByCopy(ctx context.Context, copyID string) (*models.Borrowing, error) {
	const query = `SELECT id, copy_id, borrower_id, borrower_type, status, borrowed_at, due_date,
		return_date, fine_amount, fine_paid, created_at, updated_at
		FROM borrowings WHERE copy_id = $1 AND status = $2`
	var loan models.Borrowing
	if err := r.db.GetContext(ctx, &loan, query, copyID, models.BorrowingActive); err != nil {
		return nil, err
	}
	return &loan, nil
}

// CountActiveByBorrower returns how many loans a borrower holds.
func (r *BorrowingRepository) CountActiveByBorrower(ctx context.Context, borrowerID string) (int, error) {
	const query = `SELECT COUNT(*) FROM borrowings WHERE borrower_id = $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, borrowerID, models.BorrowingActive); err != nil {
		return 0, fmt.Errorf("count active borrowings: %w", err)
	}
	return count, nil
}

// Create inserts a loan and flips the copy to borrowed in one
// transaction. Fails if the copy is no longer available.
func (r *BorrowingRepository) Create(ctx context.Context, loan *models.Borrowing) error {
	if loan.ID == "" {
		loan.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if loan.CreatedAt.IsZero() {
		loan.CreatedAt = now
	}
	loan.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin borrow: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `UPDATE book_copies SET status = $2, updated_at = $3 WHERE id = $1 AND status IN ($4, $5)`,
		loan.CopyID, models.CopyBorrowed, now, models.CopyAvailable, models.CopyReserved)
	if err != nil {
		return fmt.Errorf("mark copy borrowed: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}

	const query = `INSERT INTO borrowings (id, copy_id, borrower_id, borrower_type, status, borrowed_at,
		due_date, return_date, fine_amount, fine_paid, created_at, updated_at)
		VALUES (:id, :copy_id, :borrower_id, :borrower_type, :status, :borrowed_at,
		:due_date, :return_date, :fine_amount, :fine_paid, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, loan); err != nil {
		return fmt.Errorf("create borrowing: %w", err)
	}

	return tx.Commit()
}

// Return closes a loan and releases the copy in one transaction.
func (r *BorrowingRepository) Return(ctx context.Context, loan *models.Borrowing) error {
	loan.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin return: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE borrowings SET status = :status, return_date = :return_date,
		fine_amount = :fine_amount, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, loan); err != nil {
		return fmt.Errorf("close borrowing: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE book_copies SET status = $2, updated_at = $3 WHERE id = $1`,
		loan.CopyID, models.CopyAvailable, loan.UpdatedAt); err != nil {
		return fmt.Errorf("release copy: %w", err)
	}

	return tx.Commit()
}

// MarkFinePaid settles the fine on a returned loan.
func (r *BorrowingRepository) MarkFinePaid(ctx context.Context, id string) error {
	const query = `UPDATE borrowings SET fine_paid = TRUE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark fine paid: %w", err)
	}
	return nil
}

// MarkOverdue flips active loans past their due date to overdue and
// returns how many changed.
func (r *BorrowingRepository) MarkOverdue(ctx context.Context) (int, error) {
	const query = `UPDATE borrowings SET status = $1, updated_at = $2
		WHERE status = $3 AND due_date < $2`
	res, err := r.db.ExecContext(ctx, query, models.BorrowingOverdue, time.Now().UTC(), models.BorrowingActive)
	if err != nil {
		return 0, fmt.Errorf("mark overdue: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark overdue rows: %w", err)
	}
	return int(affected), nil
}

// CreateReservation queues a borrower for a book.
func (r *BorrowingRepository) CreateReservation(ctx context.Context, reservation *models.Reservation) error {
	if reservation.ID == "" {
		reservation.ID = uuid.NewString()
	}
	if reservation.ReservedAt.IsZero() {
		reservation.ReservedAt = time.Now().UTC()
	}

	const query = `INSERT INTO reservations (id, book_id, borrower_id, borrower_type, status, reserved_at, resolved_at)
		VALUES (:id, :book_id, :borrower_id, :borrower_type, :status, :reserved_at, :resolved_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reservation); err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// FindPendingReservation looks up an open reservation by borrower and book.
func (r *BorrowingRepository) FindPendingReservation(ctx context.Context, bookID, borrowerID string) (*models.Reservation, error) {
	const query = `SELECT id, book_id, borrower_id, borrower_type, status, reserved_at, resolved_at
		FROM reservations WHERE book_id = $1 AND borrower_id = $2 AND status = $3`
	var reservation models.Reservation
	if err := r.db.GetContext(ctx, &reservation, query, bookID, borrowerID, models.ReservationPending); err != nil {
		return nil, err
	}
	return &reservation, nil
}

// NextPendingReservation returns the oldest open reservation for a book.
func (r *BorrowingRepository) NextPendingReservation(ctx context.Context, bookID string) (*models.Reservation, error) {
	const query = `SELECT id, book_id, borrower_id, borrower_type, status, reserved_at, resolved_at
		FROM reservations WHERE book_id = $1 AND status = $2 ORDER BY reserved_at LIMIT 1`
	var reservation models.Reservation
	if err := r.db.GetContext(ctx, &reservation, query, bookID, models.ReservationPending); err != nil {
		return nil, err
	}
	return &reservation, nil
}

// ResolveReservation closes a reservation as fulfilled or cancelled.
func (r *BorrowingRepository) ResolveReservation(ctx context.Context, id string, status models.ReservationStatus) error {
	const query = `UPDATE reservations SET status = $2, resolved_at = $3 WHERE id = $1 AND status = $4`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC(), models.ReservationPending); err != nil {
		return fmt.Errorf("resolve reservation: %w", err)
	}
	return nil
}
