package models

import (
	"time"

	"github.com/lib/pq"
)

// AccountType selects the staff-side account collection an operation
// targets. Students live in their own table.
type AccountType string

const (
	AccountTeacher AccountType = "TEACHER"
	AccountStaff   AccountType = "STAFF"
	AccountAdmin   AccountType = "ADMIN"
)

// Account is a teacher, staff or admin record. Rows are soft deleted
// first; restore and permanent delete act only on soft-deleted rows.
type Account struct {
	ID                 string         `db:"id" json:"id"`
	Type               AccountType    `db:"type" json:"type"`
	FullName           string         `db:"full_name" json:"full_name"`
	Email              string         `db:"email" json:"email"`
	RegistrationNumber string         `db:"registration_number" json:"registration_number"`
	Designation        *string        `db:"designation" json:"designation,omitempty"`
	IsBlocked          bool           `db:"is_blocked" json:"is_blocked"`
	BlockReason        *string        `db:"block_reason" json:"block_reason,omitempty"`
	RegisteredIPs      pq.StringArray `db:"registered_ips" json:"registered_ip_addresses"`
	DeletedAt          *time.Time     `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// Deleted reports whether the account is soft deleted.
func (a *Account) Deleted() bool {
	return a.DeletedAt != nil
}

// Profile holds optional personal details for an account.
type Profile struct {
	ID          string     `db:"id" json:"id"`
	AccountID   string     `db:"account_id" json:"account_id"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`

	Addresses []Address `db:"-" json:"addresses,omitempty"`
}

// Address belongs to a profile. At most one address per profile is
// primary; marking one primary clears the rest.
type Address struct {
	ID        string    `db:"id" json:"id"`
	ProfileID string    `db:"profile_id" json:"profile_id"`
	Line1     string    `db:"line1" json:"line1"`
	Line2     *string   `db:"line2" json:"line2,omitempty"`
	City      string    `db:"city" json:"city"`
	Country   string    `db:"country" json:"country"`
	IsPrimary bool      `db:"is_primary" json:"is_primary"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AccountFilter captures list filtering for accounts.
type AccountFilter struct {
	Type      AccountType
	Search    string
	Blocked   *bool
	Deleted   bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Student is a learner enrolled through batches.
type Student struct {
	ID                 string    `db:"id" json:"id"`
	FullName           string    `db:"full_name" json:"full_name"`
	Email              string    `db:"email" json:"email"`
	RegistrationNumber string    `db:"registration_number" json:"registration_number"`
	BatchID            string    `db:"batch_id" json:"batch_id"`
	Active             bool      `db:"active" json:"active"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}
