package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/ronieruas/Finance-CursorApp-sub000/internal/errors"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/models"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/pagination"
)

// accountService handles account-related business logic.
type accountService struct {
	db     *gorm.DB
	ledger *Ledger
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB, ledger *Ledger) AccountServicer {
	return &accountService{db: db, ledger: ledger}
}

// CreateAccount creates an account. A non-zero opening balance is posted
// through the ledger so the balance always matches its entries.
func (s *accountService) CreateAccount(userID string, input AccountInput) (*models.Account, error) {
	if input.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}

	currency := input.Currency
	if currency == "" {
		currency = models.CurrencyBRL
	}
	if !isSupportedCurrency(currency) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "currency must be one of BRL, USD, EUR")
	}

	account := &models.Account{
		UserID:      userID,
		Name:        input.Name,
		Description: input.Description,
		Currency:    currency,
		Balance:     decimal.Zero,
		Status:      models.AccountStatusActive,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(account).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if !input.OpeningBalance.IsZero() {
			return s.ledger.Apply(tx, account, Effect{
				SourceType: models.LedgerSourceOpening,
				SourceID:   account.ID,
				Delta:      input.OpeningBalance,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// GetUserAccounts retrieves a paginated list of accounts for a user.
func (s *accountService) GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Account{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.Account
	if err := base.Order("name ASC").Scopes(pagination.Paginate(page)).Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAccountByID retrieves an account by ID for a specific user
func (s *accountService) GetAccountByID(userID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Scopes(models.OwnedBy(userID)).Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// UpdateAccount changes an account's descriptive fields and status.
// The balance is not editable here.
func (s *accountService) UpdateAccount(userID, accountID string, fields AccountUpdateFields) (*models.Account, error) {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil && *fields.Name != "" {
		updates["name"] = *fields.Name
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}
	if fields.Status != nil {
		if *fields.Status != models.AccountStatusActive && *fields.Status != models.AccountStatusInactive {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be active or inactive")
		}
		updates["status"] = *fields.Status
	}

	if len(updates) > 0 {
		if err := s.db.Model(account).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		// Reload to get fresh data
		if err := s.db.Where("id = ?", account.ID).First(account).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return account, nil
}

// GetAccountEntries lists the ledger entries of an account, newest first.
// Pages may hold up to pagination.MaxLedgerPageSize entries.
func (s *accountService) GetAccountEntries(userID, accountID string, page pagination.PageRequest) (*pagination.PageResponse[models.LedgerEntry], error) {
	if _, err := s.GetAccountByID(userID, accountID); err != nil {
		return nil, err
	}
	page.DefaultsUpTo(pagination.MaxLedgerPageSize)

	var totalItems int64
	base := s.db.Model(&models.LedgerEntry{}).Where("account_id = ?", accountID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.LedgerEntry
	if err := base.Order("posted_at DESC, id DESC").Scopes(pagination.Paginate(page)).Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Reconcile compares the stored balance with the sum of the account's ledger.
func (s *accountService) Reconcile(userID, accountID string) (*Reconciliation, error) {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}

	total, err := ledgerTotal(s.db, account.ID)
	if err != nil {
		return nil, err
	}

	return &Reconciliation{
		AccountID:   account.ID,
		Balance:     account.Balance,
		LedgerTotal: total,
		Consistent:  account.Balance.Equal(total),
	}, nil
}

func isSupportedCurrency(currency string) bool {
	switch currency {
	case models.CurrencyBRL, models.CurrencyUSD, models.CurrencyEUR:
		return true
	}
	return false
}
