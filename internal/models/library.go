package models

import "time"

// Book is a catalog title; physical stock is tracked per copy.
type Book struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Author      string    `db:"author" json:"author"`
	ISBN        string    `db:"isbn" json:"isbn"`
	Publisher   *string   `db:"publisher" json:"publisher,omitempty"`
	PublishYear *int      `db:"publish_year" json:"publish_year,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// BookFilter narrows book lists.
type BookFilter struct {
	Search   string
	Page     int
	PageSize int
}

// CopyStatus enumerates circulation states of a physical copy.
type CopyStatus string

const (
	CopyAvailable CopyStatus = "AVAILABLE"
	CopyBorrowed  CopyStatus = "BORROWED"
	CopyReserved  CopyStatus = "RESERVED"
	CopyLost      CopyStatus = "LOST"
	CopyWithdrawn CopyStatus = "WITHDRAWN"
)

// CopyCondition describes physical state.
type CopyCondition string

const (
	ConditionNew     CopyCondition = "NEW"
	ConditionGood    CopyCondition = "GOOD"
	ConditionWorn    CopyCondition = "WORN"
	ConditionDamaged CopyCondition = "DAMAGED"
)

// BookCopy is one physical copy of a book.
type BookCopy struct {
	ID         string        `db:"id" json:"id"`
	BookID     string        `db:"book_id" json:"book_id"`
	CopyNumber int           `db:"copy_number" json:"copy_number"`
	Status     CopyStatus    `db:"status" json:"status"`
	Condition  CopyCondition `db:"condition" json:"condition"`
	Location   string        `db:"location" json:"location"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

// BorrowingStatus enumerates loan states.
type BorrowingStatus string

const (
	BorrowingActive   BorrowingStatus = "ACTIVE"
	BorrowingReturned BorrowingStatus = "RETURNED"
	BorrowingOverdue  BorrowingStatus = "OVERDUE"
)

// Borrowing is a loan of a copy to a borrower. The borrower is
// polymorphic over students and staff-side accounts.
type Borrowing struct {
	ID           string          `db:"id" json:"id"`
	CopyID       string          `db:"copy_id" json:"copy_id"`
	BorrowerID   string          `db:"borrower_id" json:"borrower_id"`
	BorrowerType UserRole        `db:"borrower_type" json:"borrower_type"`
	Status       BorrowingStatus `db:"status" json:"status"`
	BorrowedAt   time.Time       `db:"borrowed_at" json:"borrowed_at"`
	DueDate      time.Time       `db:"due_date" json:"due_date"`
	ReturnDate   *time.Time      `db:"return_date" json:"return_date,omitempty"`
	FineAmount   float64         `db:"fine_amount" json:"fine_amount"`
	FinePaid     bool            `db:"fine_paid" json:"fine_paid"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// BorrowingDetail joins display fields for list screens and exports.
type BorrowingDetail struct {
	Borrowing
	BookTitle    string `db:"book_title" json:"book_title"`
	CopyNumber   int    `db:"copy_number" json:"copy_number"`
	BorrowerName string `db:"borrower_name" json:"borrower_name"`
}

// BorrowingFilter narrows loan lists.
type BorrowingFilter struct {
	BorrowerID   string
	BorrowerType string
	Status       string
	Overdue      bool
	Page         int
	PageSize     int
}

// ReservationStatus enumerates reservation states.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationFulfilled ReservationStatus = "FULFILLED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// Reservation queues a borrower for a book.
type Reservation struct {
	ID           string            `db:"id" json:"id"`
	BookID       string            `db:"book_id" json:"book_id"`
	BorrowerID   string            `db:"borrower_id" json:"borrower_id"`
	BorrowerType UserRole          `db:"borrower_type" json:"borrower_type"`
	Status       ReservationStatus `db:"status" json:"status"`
	ReservedAt   time.Time         `db:"reserved_at" json:"reserved_at"`
	ResolvedAt   *time.Time        `db:"resolved_at" json:"resolved_at,omitempty"`
}

// BorrowerInfo is the normalized view of a polymorphic borrower.
type BorrowerInfo struct {
	ID       string   `json:"id"`
	FullName string   `json:"full_name"`
	Type     UserRole `json:"type"`
	Active   bool     `json:"active"`
}
