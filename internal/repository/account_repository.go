package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campushub/ums-api/internal/models"
)

// AccountRepository manages teacher, staff and admin records. All
// three account types share one table discriminated by type.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository constructs an AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, type, full_name, email, registration_number, designation,
	is_blocked, block_reason, registered_ips, deleted_at, created_at, updated_at`

// List returns accounts of one type. Deleted selects the soft-deleted
// list instead of the active one; the two lists never overlap.
func (r *AccountRepository) List(ctx context.Context, filter models.AccountFilter) ([]models.Account, int, error) {
	base := "FROM accounts WHERE type = $1"
	args := []interface{}{string(filter.Type)}

	if filter.Deleted {
		base += " AND deleted_at IS NOT NULL"
	} else {
		base += " AND deleted_at IS NULL"
	}
	if filter.Blocked != nil {
		base += fmt.Sprintf(" AND is_blocked = $%d", len(args)+1)
		args = append(args, *filter.Blocked)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		base += fmt.Sprintf(" AND (LOWER(full_name) LIKE $%d OR LOWER(email) LIKE $%d OR LOWER(registration_number) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1)
		args = append(args, search)
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"full_name":  "full_name",
		"email":      "email",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", accountColumns, base, column, order, size, offset)
	var accounts []models.Account
	if err := r.db.SelectContext(ctx, &accounts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	return accounts, total, nil
}

// FindByID fetches an account of the given type regardless of
// soft-delete state.
func (r *AccountRepository) FindByID(ctx context.Context, accountType models.AccountType, id string) (*models.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts WHERE type = $1 AND id = $2"
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, string(accountType), id); err != nil {
		return nil, err
	}
	return &account, nil
}

// ExistsByEmail checks whether another account uses the same email.
func (r *AccountRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	query := "SELECT 1 FROM accounts WHERE LOWER(email) = LOWER($1)"
	args := []interface{}{email}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check account email: %w", err)
	}
	return true, nil
}

// Create inserts a new account record.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	if account.RegisteredIPs == nil {
		account.RegisteredIPs = pq.StringArray{}
	}

	const query = `INSERT INTO accounts (id, type, full_name, email, registration_number, designation,
		is_blocked, block_reason, registered_ips, deleted_at, created_at, updated_at)
		VALUES (:id, :type, :full_name, :email, :registration_number, :designation,
		:is_blocked, :block_reason, :registered_ips, :deleted_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, account); err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// Update modifies an existing account record.
func (r *AccountRepository) Update(ctx context.Context, account *models.Account) error {
	account.UpdatedAt = time.Now().UTC()
	const query = `UPDATE accounts SET full_name = :full_name, email = :email,
		registration_number = :registration_number, designation = :designation,
		is_blocked = :is_blocked, block_reason = :block_reason, registered_ips = :registered_ips,
		updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, account); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

// SoftDelete stamps deleted_at on an active account.
func (r *AccountRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE accounts SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("soft delete account: %w", err)
	}
	return nil
}

// Restore clears deleted_at on a soft-deleted account.
func (r *AccountRepository) Restore(ctx context.Context, id string) error {
	const query = `UPDATE accounts SET deleted_at = NULL, updated_at = $2 WHERE id = $1 AND deleted_at IS NOT NULL`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("restore account: %w", err)
	}
	return nil
}

// PermanentDelete removes a soft-deleted account for good.
func (r *AccountRepository) PermanentDelete(ctx context.Context, id string) error {
	const query = `DELETE FROM accounts WHERE id = $1 AND deleted_at IS NOT NULL`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("permanent delete account: %w", err)
	}
	return nil
}

// FindProfile loads the optional profile and its addresses.
func (r *AccountRepository) FindProfile(ctx context.Context, accountID string) (*models.Profile, error) {
	const query = `SELECT id, account_id, first_name, last_name, date_of_birth, created_at, updated_at
		FROM profiles WHERE account_id = $1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, accountID); err != nil {
		return nil, err
	}

	const addrQuery = `SELECT id, profile_id, line1, line2, city, country, is_primary, created_at
		FROM addresses WHERE profile_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &profile.Addresses, addrQuery, profile.ID); err != nil {
		return nil, fmt.Errorf("load addresses: %w", err)
	}
	return &profile, nil
}

// UpsertProfile creates or updates an account's profile.
func (r *AccountRepository) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	const query = `INSERT INTO profiles (id, account_id, first_name, last_name, date_of_birth, created_at, updated_at)
		VALUES (:id, :account_id, :first_name, :last_name, :date_of_birth, :created_at, :updated_at)
		ON CONFLICT (account_id) DO UPDATE SET first_name = EXCLUDED.first_name,
		last_name = EXCLUDED.last_name, date_of_birth = EXCLUDED.date_of_birth, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// AddAddress appends an address to a profile. Marking it primary
// demotes every other address of the same profile in the same
// transaction.
func (r *AccountRepository) AddAddress(ctx context.Context, address *models.Address) error {
	if address.ID == "" {
		address.ID = uuid.NewString()
	}
	if address.CreatedAt.IsZero() {
		address.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add address: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if address.IsPrimary {
		if _, err := tx.ExecContext(ctx, `UPDATE addresses SET is_primary = FALSE WHERE profile_id = $1`, address.ProfileID); err != nil {
			return fmt.Errorf("demote addresses: %w", err)
		}
	}

	const query = `INSERT INTO addresses (id, profile_id, line1, line2, city, country, is_primary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := tx.ExecContext(ctx, query, address.ID, address.ProfileID, address.Line1, address.Line2,
		address.City, address.Country, address.IsPrimary, address.CreatedAt); err != nil {
		return fmt.Errorf("insert address: %w", err)
	}

	return tx.Commit()
}

// SetPrimaryAddress promotes one address and demotes the rest.
func (r *AccountRepository) SetPrimaryAddress(ctx context.Context, profileID, addressID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set primary: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `UPDATE addresses SET is_primary = FALSE WHERE profile_id = $1`, profileID); err != nil {
		return fmt.Errorf("demote addresses: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE addresses SET is_primary = TRUE WHERE id = $1 AND profile_id = $2`, addressID, profileID)
	if err != nil {
		return fmt.Errorf("promote address: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}

	return tx.Commit()
}

// RemoveAddress deletes an address.
func (r *AccountRepository) RemoveAddress(ctx context.Context, profileID, addressID string) error {
	const query = `DELETE FROM addresses WHERE id = $1 AND profile_id = $2`
	if _, err := r.db.ExecContext(ctx, query, addressID, profileID); err != nil {
		return fmt.Errorf("remove address: %w", err)
	}
	return nil
}
