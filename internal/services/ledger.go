package services

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/ronieruas/Finance-CursorApp-sub000/internal/errors"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/logger"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/models"
)

// Effect is a signed change to one account balance caused by a source
// record. Positive deltas credit, negative deltas debit.
type Effect struct {
	SourceType models.LedgerSource
	SourceID   string
	Delta      decimal.Decimal
}

// Ledger is the only writer of account balances. Every method runs inside a
// transaction opened by the caller, so the balance change commits or rolls
// back together with the record that caused it.
type Ledger struct {
	calendar *Calendar
}

// NewLedger creates a Ledger stamping entries with the calendar's clock.
func NewLedger(calendar *Calendar) *Ledger {
	return &Ledger{calendar: calendar}
}

// LockAccount loads an account owned by userID with a row lock held until
// the transaction ends.
func (l *Ledger) LockAccount(tx *gorm.DB, userID, accountID string) (*models.Account, error) {
	var account models.Account
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(models.OwnedBy(userID)).Where("id = ?", accountID).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// LockAccounts locks several accounts in ascending id order so two
// transactions touching the same pair can never deadlock. Empty and
// duplicate ids are ignored.
func (l *Ledger) LockAccounts(tx *gorm.DB, userID string, ids ...string) (map[string]*models.Account, error) {
	seen := make(map[string]struct{}, len(ids))
	ordered := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, id)
	}
	sort.Strings(ordered)

	locked := make(map[string]*models.Account, len(ordered))
	for _, id := range ordered {
		account, err := l.LockAccount(tx, userID, id)
		if err != nil {
			return nil, err
		}
		locked[id] = account
	}
	return locked, nil
}

// Apply adds e.Delta to a locked account and records the entry.
func (l *Ledger) Apply(tx *gorm.DB, account *models.Account, e Effect) error {
	if !account.IsActive() {
		return apperrors.ErrAccountInactive
	}
	if e.Delta.IsZero() {
		return nil
	}
	return l.write(tx, account, &models.LedgerEntry{
		UserID:     account.UserID,
		AccountID:  account.ID,
		SourceType: e.SourceType,
		SourceID:   e.SourceID,
		Delta:      e.Delta.Round(2),
	})
}

// Reverse cancels the open entry that (sourceType, sourceID) left on a
// locked account. A missing entry means the stored balance and its history
// disagree, which is reported as ErrLedgerConsistency.
func (l *Ledger) Reverse(tx *gorm.DB, account *models.Account, sourceType models.LedgerSource, sourceID string) error {
	var original models.LedgerEntry
	err := tx.Where("account_id = ? AND source_type = ? AND source_id = ? AND reversed_at IS NULL",
		account.ID, sourceType, sourceID).
		Order("posted_at DESC").
		First(&original).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Get().Errorw("ledger reverse found no open entry",
				"account_id", account.ID,
				"source_type", sourceType,
				"source_id", sourceID,
			)
			return apperrors.Wrap(apperrors.ErrLedgerConsistency,
				fmt.Errorf("no open %s entry for source %s on account %s", sourceType, sourceID, account.ID))
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := l.calendar.Instant()
	if err := tx.Model(&original).Update("reversed_at", now).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	originalID := original.ID
	return l.write(tx, account, &models.LedgerEntry{
		UserID:     account.UserID,
		AccountID:  account.ID,
		SourceType: models.LedgerSourceReversal,
		SourceID:   sourceID,
		Delta:      original.Delta.Neg(),
		ReversesID: &originalID,
	})
}

func (l *Ledger) write(tx *gorm.DB, account *models.Account, entry *models.LedgerEntry) error {
	entry.PostedAt = l.calendar.Instant()
	newBalance := account.Balance.Add(entry.Delta).Round(2)

	if err := tx.Model(account).Update("balance", newBalance).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := tx.Create(entry).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	account.Balance = newBalance
	return nil
}

func sortAccounts(accounts []models.Account) {
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
}

// RequireFunds rejects a checked debit that would take the balance below zero.
func RequireFunds(account *models.Account, value decimal.Decimal) error {
	if account.Balance.LessThan(value) {
		return apperrors.ErrInsufficientFunds
	}
	return nil
}

// ledgerTotal sums every entry ever written for an account.
func ledgerTotal(db *gorm.DB, accountID string) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := db.Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(delta), 0) AS total").
		Where("account_id = ?", accountID).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return row.Total.Round(2), nil
}
