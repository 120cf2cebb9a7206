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

// BookRepository manages catalog titles and their physical copies.
type BookRepository struct {
	db *sqlx.DB
}

// NewBookRepository constructs a BookRepository.
func NewBookRepository(db *sqlx.DB) *BookRepository {
	return &BookRepository{db: db}
}

const bookColumns = "id, title, author, isbn, publisher, publish_year, created_at, updated_at"

// List returns books matching the filter plus total count.
func (r *BookRepository) List(ctx context.Context, filter models.BookFilter) ([]models.Book, int, error) {
	base := "FROM books WHERE 1=1"
	var args []interface{}

	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		base += " AND (LOWER(title) LIKE $1 OR LOWER(author) LIKE $1 OR isbn LIKE $1)"
		args = append(args, search)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY title LIMIT %d OFFSET %d", bookColumns, base, size, offset)
	var books []models.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	return books, total, nil
}

// FindByID fetches a book by ID.
func (r *BookRepository) FindByID(ctx context.Context, id string) (*models.Book, error) {
	query := "SELECT " + bookColumns + " FROM books WHERE id = $1"
	var book models.Book
	if err := r.db.GetContext(ctx, &book, query, id); err != nil {
		return nil, err
	}
	return &book, nil
}

// Create inserts a new book.
func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	if book.ID == "" {
		book.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = now

	const query = `INSERT INTO books (id, title, author, isbn, publisher, publish_year, created_at, updated_at)
		VALUES (:id, :title, :author, :isbn, :publisher, :publish_year, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, book); err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

// Update modifies an existing book.
func (r *BookRepository) Update(ctx context.Context, book *models.Book) error {
	book.UpdatedAt = time.Now().UTC()
	const query = `UPDATE books SET title = :title, author = :author, isbn = :isbn,
		publisher = :publisher, publish_year = :publish_year, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, book); err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	return nil
}

// Delete removes a book and cascades to copies.
func (r *BookRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM books WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}

// ListCopies returns every copy of a book ordered by copy number.
func (r *BookRepository) ListCopies(ctx context.Context, bookID string) ([]models.BookCopy, error) {
	const query = `SELECT id, book_id, copy_number, status, condition, location, created_at, updated_at
		FROM book_copies WHERE book_id = $1 ORDER BY copy_number`
	var copies []models.BookCopy
	if err := r.db.SelectContext(ctx, &copies, query, bookID); err != nil {
		return nil, fmt.Errorf("list copies: %w", err)
	}
	return copies, nil
}

// FindCopy fetches one copy by ID.
func (r *BookRepository) FindCopy(ctx context.Context, id string) (*models.BookCopy, error) {
	const query = `SELECT id, book_id, copy_number, status, condition, location, created_at, updated_at
		FROM book_copies WHERE id = $1`
	var copy models.BookCopy
	if err := r.db.GetContext(ctx, &copy, query, id); err != nil {
		return nil, err
	}
	return &copy, nil
}

// GenerateCopies bulk-creates copies with copy numbers continuing from
// the book's current maximum, all in one transaction.
func (r *BookRepository) GenerateCopies(ctx context.Context, bookID string, count int, condition models.CopyCondition, location string) ([]models.BookCopy, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin generate copies: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var maxNumber sql.NullInt64
	if err := tx.GetContext(ctx, &maxNumber, `SELECT MAX(copy_number) FROM book_copies WHERE book_id = $1`, bookID); err != nil {
		return nil, fmt.Errorf("load max copy number: %w", err)
	}

	now := time.Now().UTC()
	copies := make([]models.BookCopy, 0, count)
	const insertQuery = `INSERT INTO book_copies (id, book_id, copy_number, status, condition, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`
	for i := 1; i <= count; i++ {
		copy := models.BookCopy{
			ID:         uuid.NewString(),
			BookID:     bookID,
			CopyNumber: int(maxNumber.Int64) + i,
			Status:     models.CopyAvailable,
			Condition:  condition,
			Location:   location,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if _, err := tx.ExecContext(ctx, insertQuery, copy.ID, copy.BookID, copy.CopyNumber, copy.Status, copy.Condition, copy.Location, now); err != nil {
			return nil, fmt.Errorf("insert copy %d: %w", copy.CopyNumber, err)
		}
		copies = append(copies, copy)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit generate copies: %w", err)
	}
	return copies, nil
}

// UpdateCopyStatus moves a copy through its circulation states.
func (r *BookRepository) UpdateCopyStatus(ctx context.Context, id string, status models.CopyStatus) error {
	const query = `UPDATE book_copies SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update copy status: %w", err)
	}
	return nil
}
