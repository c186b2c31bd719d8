package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/billing"
	apperrors "github.com/ronieruas/Finance-CursorApp-sub000/internal/errors"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/models"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/pagination"
)

// transferService moves money between accounts and third parties.
type transferService struct {
	db     *gorm.DB
	ledger *Ledger
}

// NewTransferService creates a new TransferServicer.
func NewTransferService(db *gorm.DB, ledger *Ledger) TransferServicer {
	return &transferService{db: db, ledger: ledger}
}

func normalizeTransfer(input TransferInput) (TransferInput, error) {
	if input.FromAccountID != nil && *input.FromAccountID == "" {
		input.FromAccountID = nil
	}
	if input.ToAccountID != nil && *input.ToAccountID == "" {
		input.ToAccountID = nil
	}
	if input.FromAccountID == nil && input.ToAccountID == nil {
		return input, apperrors.ErrNoTransferAccount
	}
	if input.FromAccountID != nil && input.ToAccountID != nil && *input.FromAccountID == *input.ToAccountID {
		return input, apperrors.ErrSameAccountTransfer
	}
	if !input.Value.IsPositive() {
		return input, apperrors.WithMessage(apperrors.ErrInvalidInput, "value must be positive")
	}
	if input.Date.IsZero() {
		return input, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}
	input.Value = input.Value.Round(2)
	return input, nil
}

// applyTransfer debits the source (checked) and credits the destination of
// a transfer whose accounts are already locked.
func (s *transferService) applyTransfer(tx *gorm.DB, accounts map[string]*models.Account, transfer *models.Transfer) error {
	var from, to *models.Account
	if transfer.FromAccountID != nil {
		from = accounts[*transfer.FromAccountID]
	}
	if transfer.ToAccountID != nil {
		to = accounts[*transfer.ToAccountID]
	}
	if from != nil && to != nil && from.Currency != to.Currency {
		return apperrors.ErrCurrencyMismatch
	}

	if from != nil {
		if !from.IsActive() {
			return apperrors.ErrAccountInactive
		}
		if err := RequireFunds(from, transfer.Value); err != nil {
			return err
		}
		if err := s.ledger.Apply(tx, from, Effect{
			SourceType: models.LedgerSourceTransferOut,
			SourceID:   transfer.ID,
			Delta:      transfer.Value.Neg(),
		}); err != nil {
			return err
		}
	}
	if to != nil {
		if err := s.ledger.Apply(tx, to, Effect{
			SourceType: models.LedgerSourceTransferIn,
			SourceID:   transfer.ID,
			Delta:      transfer.Value,
		}); err != nil {
			return err
		}
	}
	return nil
}

// reverseTransfer cancels whichever sides of the transfer hit real accounts.
func (s *transferService) reverseTransfer(tx *gorm.DB, accounts map[string]*models.Account, transfer *models.Transfer) error {
	if transfer.FromAccountID != nil {
		if err := s.ledger.Reverse(tx, accounts[*transfer.FromAccountID], models.LedgerSourceTransferOut, transfer.ID); err != nil {
			return err
		}
	}
	if transfer.ToAccountID != nil {
		if err := s.ledger.Reverse(tx, accounts[*transfer.ToAccountID], models.LedgerSourceTransferIn, transfer.ID); err != nil {
			return err
		}
	}
	return nil
}

// CreateTransfer records a transfer and moves the money in one transaction.
// Nothing changes when the source lacks funds.
func (s *transferService) CreateTransfer(userID string, input TransferInput) (*models.Transfer, []models.Account, error) {
	input, err := normalizeTransfer(input)
	if err != nil {
		return nil, nil, err
	}

	transfer := &models.Transfer{
		UserID:        userID,
		FromAccountID: input.FromAccountID,
		ToAccountID:   input.ToAccountID,
		Value:         input.Value,
		Date:          billing.CalendarDay(input.Date),
		Description:   input.Description,
	}

	var affected []models.Account
	err = s.db.Transaction(func(tx *gorm.DB) error {
		accounts, err := s.ledger.LockAccounts(tx, userID, derefString(input.FromAccountID), derefString(input.ToAccountID))
		if err != nil {
			return err
		}
		if err := tx.Create(transfer).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.applyTransfer(tx, accounts, transfer); err != nil {
			return err
		}
		affected = accountList(accounts)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return transfer, affected, nil
}

// GetTransferByID retrieves a transfer owned by the user.
func (s *transferService) GetTransferByID(userID, transferID string) (*models.Transfer, error) {
	return findTransfer(s.db, userID, transferID)
}

func findTransfer(db *gorm.DB, userID, transferID string) (*models.Transfer, error) {
	var transfer models.Transfer
	if err := db.Scopes(models.OwnedBy(userID)).Where("id = ?", transferID).First(&transfer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransferNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transfer, nil
}

// GetUserTransfers lists a user's transfers, optionally those touching one account.
func (s *transferService) GetUserTransfers(userID string, page pagination.PageRequest, accountID *string) (*pagination.PageResponse[models.Transfer], error) {
	page.Defaults()

	query := s.db.Model(&models.Transfer{}).Where("user_id = ?", userID)
	if accountID != nil && *accountID != "" {
		query = query.Where("from_account_id = ? OR to_account_id = ?", *accountID, *accountID)
	}

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transfers []models.Transfer
	if err := query.Order("date DESC, created_at DESC").Scopes(pagination.Paginate(page)).Find(&transfers).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transfers, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// EditTransfer reverses the old sides and applies the new ones. Old and new
// accounts are locked together up front, so a failed funds check on the new
// source rolls the reversal back too.
func (s *transferService) EditTransfer(userID, transferID string, input TransferInput) (*models.Transfer, []models.Account, error) {
	input, err := normalizeTransfer(input)
	if err != nil {
		return nil, nil, err
	}

	var transfer *models.Transfer
	var affected []models.Account
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		transfer, err = findTransfer(tx, userID, transferID)
		if err != nil {
			return err
		}

		accounts, err := s.ledger.LockAccounts(tx, userID,
			derefString(transfer.FromAccountID), derefString(transfer.ToAccountID),
			derefString(input.FromAccountID), derefString(input.ToAccountID))
		if err != nil {
			return err
		}

		if err := s.reverseTransfer(tx, accounts, transfer); err != nil {
			return err
		}

		transfer.FromAccountID = input.FromAccountID
		transfer.ToAccountID = input.ToAccountID
		transfer.Value = input.Value
		transfer.Date = billing.CalendarDay(input.Date)
		transfer.Description = input.Description
		if err := tx.Save(transfer).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := s.applyTransfer(tx, accounts, transfer); err != nil {
			return err
		}
		affected = accountList(accounts)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return transfer, affected, nil
}

// DeleteTransfer reverses the transfer's real sides and soft-deletes it.
func (s *transferService) DeleteTransfer(userID, transferID string) ([]models.Account, error) {
	var affected []models.Account
	err := s.db.Transaction(func(tx *gorm.DB) error {
		transfer, err := findTransfer(tx, userID, transferID)
		if err != nil {
			return err
		}

		accounts, err := s.ledger.LockAccounts(tx, userID, derefString(transfer.FromAccountID), derefString(transfer.ToAccountID))
		if err != nil {
			return err
		}
		if err := s.reverseTransfer(tx, accounts, transfer); err != nil {
			return err
		}
		if err := tx.Delete(transfer).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		affected = accountList(accounts)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return affected, nil
}
