package service

import (
	"context"
	"database/sql"
	"errors"
	"net"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/ums-api/internal/models"
	appErrors "github.com/campushub/ums-api/pkg/errors"
)

type accountRepository interface {
	List(ctx context.Context, filter models.AccountFilter) ([]models.Account, int, error)
	FindByID(ctx context.Context, accountType models.AccountType, id string) (*models.Account, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, account *models.Account) error
	Update(ctx context.Context, account *models.Account) error
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	PermanentDelete(ctx context.Context, id string) error
	FindProfile(ctx context.Context, accountID string) (*models.Profile, error)
	UpsertProfile(ctx context.Context, profile *models.Profile) error
	AddAddress(ctx context.Context, address *models.Address) error
	SetPrimaryAddress(ctx context.Context, profileID, addressID string) error
	RemoveAddress(ctx context.Context, profileID, addressID string) error
}

type accountAuditor interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateAccountRequest describes account creation payload.
type CreateAccountRequest struct {
	FullName           string  `json:"full_name" validate:"required"`
	Email              string  `json:"email" validate:"required,email"`
	RegistrationNumber string  `json:"registration_number" validate:"required"`
	Designation        *string `json:"designation"`
}

// UpdateAccountRequest describes account update payload.
type UpdateAccountRequest struct {
	FullName           string  `json:"full_name" validate:"required"`
	Email              string  `json:"email" validate:"required,email"`
	RegistrationNumber string  `json:"registration_number" validate:"required"`
	Designation        *string `json:"designation"`
}

// BlockAccountRequest carries the optional reason for a block.
type BlockAccountRequest struct {
	Reason string `json:"reason"`
}

// RegisterIPRequest adds a trusted address for an account.
type RegisterIPRequest struct {
	IP string `json:"ip" validate:"required"`
}

// AddAddressRequest appends an address to a profile.
type AddAddressRequest struct {
	Line1     string  `json:"line1" validate:"required"`
	Line2     *string `json:"line2"`
	City      string  `json:"city" validate:"required"`
	Country   string  `json:"country" validate:"required"`
	IsPrimary bool    `json:"is_primary"`
}

// AccountService manages teacher, staff and admin records across the
// soft-delete lifecycle.
type AccountService struct {
	repo      accountRepository
	auditor   accountAuditor
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAccountService constructs AccountService.
func NewAccountService(repo accountRepository, auditor accountAuditor, validate *validator.Validate, logger *zap.Logger) *AccountService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{repo: repo, auditor: auditor, validator: validate, logger: logger}
}

// List returns accounts of one type with pagination metadata. Deleted
// selects the recycle-bin view.
func (s *AccountService) List(ctx context.Context, filter models.AccountFilter) ([]models.Account, *models.Pagination, error) {
	accounts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list accounts")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return accounts, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one account of the given type.
func (s *AccountService) Get(ctx context.Context, accountType models.AccountType, id string) (*models.Account, error) {
	account, err := s.repo.FindByID(ctx, accountType, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	return account, nil
}

// Create registers a new account of the given type.
func (s *AccountService) Create(ctx context.Context, accountType models.AccountType, req CreateAccountRequest) (*models.Account, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid account payload")
	}
	exists, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
	}

	account := &models.Account{
		Type:               accountType,
		FullName:           req.FullName,
		Email:              req.Email,
		RegistrationNumber: req.RegistrationNumber,
		Designation:        req.Designation,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}
	s.audit(ctx, models.AuditActionCreate, "account", account.ID)
	return account, nil
}

// Update modifies an active account.
func (s *AccountService) Update(ctx context.Context, accountType models.AccountType, id string, req UpdateAccountRequest) (*models.Account, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid account payload")
	}
	account, err := s.Get(ctx, accountType, id)
	if err != nil {
		return nil, err
	}
	if account.Deleted() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "account is deleted")
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
	}

	account.FullName = req.FullName
	account.Email = req.Email
	account.RegistrationNumber = req.RegistrationNumber
	account.Designation = req.Designation
	if err := s.repo.Update(ctx, account); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update account")
	}
	s.audit(ctx, models.AuditActionUpdate, "account", account.ID)
	return account, nil
}

// Block prevents an account from signing in.
func (s *AccountService) Block(ctx context.Context, accountType models.AccountType, id string, req BlockAccountRequest) (*models.Account, error) {
	account, err := s.Get(ctx, accountType, id)
	if err != nil {
		return nil, err
	}
	if account.Deleted() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "account is deleted")
	}
	account.IsBlocked = true
	account.BlockReason = nil
	if req.Reason != "" {
		account.BlockReason = &req.Reason
	}
	if err := s.repo.Update(ctx, account); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to block account")
	}
	s.audit(ctx, models.AuditActionUpdate, "account.block", account.ID)
	return account, nil
}

// Unblock lifts a block.
func (s *AccountService) Unblock(ctx context.Context, accountType models.AccountType, id string) (*models.Account, error) {
	account, err := s.Get(ctx, accountType, id)
	if err != nil {
		return nil, err
	}
	account.IsBlocked = false
	account.BlockReason = nil
	if err := s.repo.Update(ctx, account); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unblock account")
	}
	s.audit(ctx, models.AuditActionUpdate, "account.unblock", account.ID)
	return account, nil
}

// RegisterIP appends an address to the account's trusted set. The set
// stays duplicate free.
func (s *AccountService) RegisterIP(ctx context.Context, accountType models.AccountType, id string, req RegisterIPRequest) (*models.Account, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid ip payload")
	}
	if net.ParseIP(req.IP) == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "malformed ip address")
	}
	account, err := s.Get(ctx, accountType, id)
	if err != nil {
		return nil, err
	}
	if account.Deleted() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "account is deleted")
	}
	for _, existing := range account.RegisteredIPs {
		if existing == req.IP {
			return account, nil
		}
	}
	account.RegisteredIPs = append(account.RegisteredIPs, req.IP)
	if err := s.repo.Update(ctx, account); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register ip")
	}
	return account, nil
}

// UnregisterIP drops an address from the trusted set by value. An
// address that was never registered is a no-op.
func (s *AccountService) UnregisterIP(ctx context.Context, accountType models.AccountType, id string, req RegisterIPRequest) (*models.Account, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid ip payload")
	}
	account, err := s.Get(ctx, accountType, id)
	if err != nil {
		return nil, err
	}
	if account.Deleted() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "account is deleted")
	}

	kept := account.RegisteredIPs[:0]
	for _, existing := range account.RegisteredIPs {
		if existing != req.IP {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(account.RegisteredIPs) {
		return account, nil
	}
	account.RegisteredIPs = kept
	if err := s.repo.Update(ctx, account); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unregister ip")
	}
	return account, nil
}

// SoftDelete moves an active account to the recycle bin.
func (s *AccountService) SoftDelete(ctx context.Context, accountType models.AccountType, id string) error {
	account, err := s.Get(ctx, accountType, id)
	if err != nil {
		return err
	}
	if account.Deleted() {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "account already deleted")
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete account")
	}
	s.audit(ctx, models.AuditActionDelete, "account", id)
	return nil
}

// Restore brings a soft-deleted account back.
func (s *AccountService) Restore(ctx context.Context, accountType models.AccountType, id string) error {
	account, err := s.Get(ctx, accountType, id)
	if err != nil {
		return err
	}
	if !account.Deleted() {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "account is not deleted")
	}
	if err := s.repo.Restore(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore account")
	}
	s.audit(ctx, models.AuditActionUpdate, "account.restore", id)
	return nil
}

// PermanentDelete removes a soft-deleted account for good. Active
// accounts must be soft deleted first.
func (s *AccountService) PermanentDelete(ctx context.Context, accountType models.AccountType, id string) error {
	account, err := s.Get(ctx, accountType, id)
	if err != nil {
		return err
	}
	if !account.Deleted() {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "account must be deleted first")
	}
	if err := s.repo.PermanentDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to permanently delete account")
	}
	s.audit(ctx, models.AuditActionDelete, "account.permanent", id)
	return nil
}

// Profile loads the optional profile for an account.
func (s *AccountService) Profile(ctx context.Context, accountType models.AccountType, id string) (*models.Profile, error) {
	if _, err := s.Get(ctx, accountType, id); err != nil {
		return nil, err
	}
	profile, err := s.repo.FindProfile(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// SaveProfile creates or replaces the profile for an account.
func (s *AccountService) SaveProfile(ctx context.Context, accountType models.AccountType, id string, profile *models.Profile) (*models.Profile, error) {
	account, err := s.Get(ctx, accountType, id)
	if err != nil {
		return nil, err
	}
	if account.Deleted() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "account is deleted")
	}
	profile.AccountID = id
	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save profile")
	}
	return s.Profile(ctx, accountType, id)
}

// AddAddress appends an address to the account's profile.
func (s *AccountService) AddAddress(ctx context.Context, accountType models.AccountType, id string, req AddAddressRequest) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid address payload")
	}
	profile, err := s.Profile(ctx, accountType, id)
	if err != nil {
		return nil, err
	}
	address := &models.Address{
		ProfileID: profile.ID,
		Line1:     req.Line1,
		Line2:     req.Line2,
		City:      req.City,
		Country:   req.Country,
		IsPrimary: req.IsPrimary,
	}
	if err := s.repo.AddAddress(ctx, address); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add address")
	}
	return s.Profile(ctx, accountType, id)
}

// SetPrimaryAddress promotes one address; every other address of the
// profile is demoted.
func (s *AccountService) SetPrimaryAddress(ctx context.Context, accountType models.AccountType, id, addressID string) (*models.Profile, error) {
	profile, err := s.Profile(ctx, accountType, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetPrimaryAddress(ctx, profile.ID, addressID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "address not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set primary address")
	}
	return s.Profile(ctx, accountType, id)
}

// RemoveAddress deletes an address from the account's profile.
func (s *AccountService) RemoveAddress(ctx context.Context, accountType models.AccountType, id, addressID string) (*models.Profile, error) {
	profile, err := s.Profile(ctx, accountType, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RemoveAddress(ctx, profile.ID, addressID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove address")
	}
	return s.Profile(ctx, accountType, id)
}

func (s *AccountService) audit(ctx context.Context, action models.AuditAction, resource, resourceID string) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.CreateAuditLog(ctx, &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("resource", resource), zap.Error(err))
	}
}
