package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/billing"
	apperrors "github.com/ronieruas/Finance-CursorApp-sub000/internal/errors"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/logger"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/models"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/pagination"
)

// expenseService posts expenses to accounts and cards.
type expenseService struct {
	db       *gorm.DB
	ledger   *Ledger
	calendar *Calendar
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB, ledger *Ledger, calendar *Calendar) ExpenseServicer {
	return &expenseService{db: db, ledger: ledger, calendar: calendar}
}

// normalizeTargets turns empty-string references into nil.
func normalizeTargets(input ExpenseInput) ExpenseInput {
	if input.AccountID != nil && *input.AccountID == "" {
		input.AccountID = nil
	}
	if input.CreditCardID != nil && *input.CreditCardID == "" {
		input.CreditCardID = nil
	}
	return input
}

func validateExpense(input ExpenseInput) error {
	hasAccount := input.AccountID != nil
	hasCard := input.CreditCardID != nil
	if hasAccount == hasCard {
		return apperrors.ErrExpenseTargetConflict
	}
	if input.Description == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if !input.Value.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "value must be positive")
	}
	if input.DueDate.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "due_date is required")
	}
	switch input.Status {
	case "", models.ExpenseStatusPending, models.ExpenseStatusPaid, models.ExpenseStatusOverdue:
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be pending, paid or overdue")
	}
	if input.InstallmentTotal < 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "installment_total must be positive")
	}
	if input.InstallmentTotal > 1 && hasAccount {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "installments are only allowed on credit card purchases")
	}
	return nil
}

// splitInstallments divides value into n parts rounded down to cents, with
// the leftover cents on the first part.
func splitInstallments(value decimal.Decimal, n int) []decimal.Decimal {
	if n <= 1 {
		return []decimal.Decimal{value.Round(2)}
	}
	count := decimal.NewFromInt(int64(n))
	part := value.Div(count).RoundDown(2)
	parts := make([]decimal.Decimal, n)
	for i := range parts {
		parts[i] = part
	}
	parts[0] = value.Sub(part.Mul(count)).Add(part).Round(2)
	return parts
}

// PostExpense records an expense. An account expense debits the account at
// once and may overdraw it; a card charge only joins the card's invoice.
// Card purchases with more than one installment become one expense per month.
func (s *expenseService) PostExpense(userID string, input ExpenseInput) ([]models.Expense, *models.Account, error) {
	input = normalizeTargets(input)
	if err := validateExpense(input); err != nil {
		return nil, nil, err
	}

	status := input.Status
	if status == "" {
		status = models.ExpenseStatusPending
	}
	total := input.InstallmentTotal
	if total == 0 {
		total = 1
	}
	dueDate := billing.CalendarDay(input.DueDate)

	var created []models.Expense
	var account *models.Account
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if input.CreditCardID != nil {
			if _, err := findCard(tx, userID, *input.CreditCardID); err != nil {
				return err
			}
		} else {
			var err error
			account, err = s.ledger.LockAccount(tx, userID, *input.AccountID)
			if err != nil {
				return err
			}
		}

		parts := splitInstallments(input.Value, total)
		for i, part := range parts {
			description := input.Description
			if total > 1 {
				description = fmt.Sprintf("%s (%d/%d)", input.Description, i+1, total)
			}
			expense := models.Expense{
				UserID:            userID,
				AccountID:         input.AccountID,
				CreditCardID:      input.CreditCardID,
				Description:       description,
				Category:          input.Category,
				Value:             part,
				DueDate:           billing.AddMonthsClamped(dueDate, i),
				Status:            status,
				InstallmentNumber: i + 1,
				InstallmentTotal:  total,
				IsRecurring:       input.IsRecurring,
			}
			if status == models.ExpenseStatusPaid {
				paidAt := s.calendar.Today()
				expense.PaidAt = &paidAt
			}
			if err := tx.Create(&expense).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}

			if account != nil {
				if err := s.ledger.Apply(tx, account, Effect{
					SourceType: models.LedgerSourceExpense,
					SourceID:   expense.ID,
					Delta:      expense.Value.Neg(),
				}); err != nil {
					return err
				}
			}
			created = append(created, expense)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return created, account, nil
}

// GetExpenseByID retrieves an expense owned by the user.
func (s *expenseService) GetExpenseByID(userID, expenseID string) (*models.Expense, error) {
	return findExpense(s.db, userID, expenseID)
}

func findExpense(db *gorm.DB, userID, expenseID string) (*models.Expense, error) {
	var expense models.Expense
	if err := db.Scopes(models.OwnedBy(userID)).Where("id = ?", expenseID).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// GetUserExpenses lists a user's expenses by due date.
func (s *expenseService) GetUserExpenses(userID string, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error) {
	page.Defaults()

	query := s.db.Model(&models.Expense{}).Where("user_id = ?", userID)
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.CreditCardID != nil {
		query = query.Where("credit_card_id = ?", *filter.CreditCardID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("due_date >= ?", billing.CalendarDay(*filter.FromDate))
	}
	if filter.ToDate != nil {
		query = query.Where("due_date <= ?", billing.CalendarDay(*filter.ToDate))
	}

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := query.Order("due_date DESC").Scopes(pagination.Paginate(page)).Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenses, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// EditExpense rewrites a single expense. The old debit, if any, is reversed
// before the new one is applied, so the expense may move between accounts
// or between an account and a card without double counting.
func (s *expenseService) EditExpense(userID, expenseID string, input ExpenseInput) (*models.Expense, []models.Account, error) {
	input = normalizeTargets(input)
	if err := validateExpense(input); err != nil {
		return nil, nil, err
	}
	if input.InstallmentTotal > 1 {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "installments can only be set when the purchase is created")
	}

	var expense *models.Expense
	var affected []models.Account
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		expense, err = findExpense(tx, userID, expenseID)
		if err != nil {
			return err
		}

		if input.CreditCardID != nil {
			if _, err := findCard(tx, userID, *input.CreditCardID); err != nil {
				return err
			}
		}

		accounts, err := s.ledger.LockAccounts(tx, userID, derefString(expense.AccountID), derefString(input.AccountID))
		if err != nil {
			return err
		}

		if expense.AccountID != nil {
			if err := s.ledger.Reverse(tx, accounts[*expense.AccountID], models.LedgerSourceExpense, expense.ID); err != nil {
				return err
			}
		}

		cardChanged := derefString(expense.CreditCardID) != derefString(input.CreditCardID)
		newDue := billing.CalendarDay(input.DueDate)
		if cardChanged || !newDue.Equal(expense.DueDate) {
			// the charge may now belong to another invoice
			expense.BillClosedAt = nil
		}

		status := input.Status
		if status == "" {
			status = expense.Status
		}
		// paid_at is a calendar day, the same way PayBill records it
		if status == models.ExpenseStatusPaid && expense.PaidAt == nil {
			paidAt := s.calendar.Today()
			expense.PaidAt = &paidAt
		}
		if status != models.ExpenseStatusPaid {
			expense.PaidAt = nil
		}

		expense.AccountID = input.AccountID
		expense.CreditCardID = input.CreditCardID
		expense.Description = input.Description
		expense.Category = input.Category
		expense.Value = input.Value.Round(2)
		expense.DueDate = newDue
		expense.Status = status
		expense.IsRecurring = input.IsRecurring
		if err := tx.Save(expense).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if expense.AccountID != nil {
			if err := s.ledger.Apply(tx, accounts[*expense.AccountID], Effect{
				SourceType: models.LedgerSourceExpense,
				SourceID:   expense.ID,
				Delta:      expense.Value.Neg(),
			}); err != nil {
				return err
			}
		}

		affected = accountList(accounts)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return expense, affected, nil
}

// DeleteExpense reverses an account expense's debit exactly once and
// soft-deletes the row. Card charges just leave their invoice.
func (s *expenseService) DeleteExpense(userID, expenseID string) (*models.Account, error) {
	var account *models.Account
	err := s.db.Transaction(func(tx *gorm.DB) error {
		expense, err := findExpense(tx, userID, expenseID)
		if err != nil {
			return err
		}

		if expense.AccountID != nil {
			account, err = s.ledger.LockAccount(tx, userID, *expense.AccountID)
			if err != nil {
				return err
			}
			if err := s.ledger.Reverse(tx, account, models.LedgerSourceExpense, expense.ID); err != nil {
				return err
			}
		}

		if err := tx.Delete(expense).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// MarkOverdue flags pending account expenses whose due date is before asOf.
// Card charges are settled through their invoice and are left alone.
func (s *expenseService) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	day := billing.CalendarDay(asOf)
	result := s.db.WithContext(ctx).Model(&models.Expense{}).
		Where("status = ? AND account_id IS NOT NULL AND due_date < ?", models.ExpenseStatusPending, day).
		Update("status", models.ExpenseStatusOverdue)
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}

	logger.ForJob("mark_overdue", day).Infow("marked overdue expenses", "count", result.RowsAffected)
	return result.RowsAffected, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
