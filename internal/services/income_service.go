package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/billing"
	apperrors "github.com/ronieruas/Finance-CursorApp-sub000/internal/errors"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/logger"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/models"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/pagination"
)

// incomeService posts incomes to accounts.
type incomeService struct {
	db       *gorm.DB
	ledger   *Ledger
	calendar *Calendar
}

// NewIncomeService creates a new IncomeServicer.
func NewIncomeService(db *gorm.DB, ledger *Ledger, calendar *Calendar) IncomeServicer {
	return &incomeService{db: db, ledger: ledger, calendar: calendar}
}

func validateIncome(input IncomeInput) error {
	if input.AccountID == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "account_id is required")
	}
	if input.Description == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if !input.Value.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "value must be positive")
	}
	if input.Date.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}
	return nil
}

// PostIncome records an income. Incomes dated today or earlier are credited
// at once; future incomes wait for PostDueIncomes.
func (s *incomeService) PostIncome(userID string, input IncomeInput) (*models.Income, *models.Account, error) {
	if err := validateIncome(input); err != nil {
		return nil, nil, err
	}

	income := &models.Income{
		UserID:      userID,
		AccountID:   input.AccountID,
		Description: input.Description,
		Value:       input.Value.Round(2),
		Date:        billing.CalendarDay(input.Date),
		IsRecurring: input.IsRecurring,
	}
	if income.IsRecurring {
		income.RecurrenceDay = income.Date.Day()
	}

	var account *models.Account
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		account, err = s.ledger.LockAccount(tx, userID, input.AccountID)
		if err != nil {
			return err
		}
		if !account.IsActive() {
			return apperrors.ErrAccountInactive
		}

		if err := tx.Create(income).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if income.Date.After(s.calendar.Today()) {
			return nil
		}
		if err := s.post(tx, income, account); err != nil {
			return err
		}
		if income.IsRecurring {
			return scheduleNextIncome(tx, income)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return income, account, nil
}

// post credits an unposted income and flips its posted flag.
func (s *incomeService) post(tx *gorm.DB, income *models.Income, account *models.Account) error {
	now := s.calendar.Instant()
	result := tx.Model(&models.Income{}).
		Where("id = ? AND posted = ?", income.ID, false).
		Updates(map[string]interface{}{"posted": true, "posted_at": now})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		// already posted by a concurrent run
		return nil
	}

	income.Posted = true
	income.PostedAt = &now
	return s.ledger.Apply(tx, account, Effect{
		SourceType: models.LedgerSourceIncome,
		SourceID:   income.ID,
		Delta:      income.Value,
	})
}

// GetIncomeByID retrieves an income owned by the user.
func (s *incomeService) GetIncomeByID(userID, incomeID string) (*models.Income, error) {
	return findIncome(s.db, userID, incomeID)
}

func findIncome(db *gorm.DB, userID, incomeID string) (*models.Income, error) {
	var income models.Income
	if err := db.Scopes(models.OwnedBy(userID)).Where("id = ?", incomeID).First(&income).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrIncomeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &income, nil
}

// GetUserIncomes lists a user's incomes, newest first.
func (s *incomeService) GetUserIncomes(userID string, page pagination.PageRequest, filter IncomeFilter) (*pagination.PageResponse[models.Income], error) {
	page.Defaults()

	query := s.db.Model(&models.Income{}).Where("user_id = ?", userID)
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.FromDate != nil {
		query = query.Where("date >= ?", billing.CalendarDay(*filter.FromDate))
	}
	if filter.ToDate != nil {
		query = query.Where("date <= ?", billing.CalendarDay(*filter.ToDate))
	}
	if filter.Posted != nil {
		query = query.Where("posted = ?", *filter.Posted)
	}

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var incomes []models.Income
	if err := query.Order("date DESC").Scopes(pagination.Paginate(page)).Find(&incomes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(incomes, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// EditIncome rewrites an income. A posted income has its old credit
// reversed and the new one applied, possibly on another account. An
// unposted income is posted if its new date is no longer in the future.
func (s *incomeService) EditIncome(userID, incomeID string, input IncomeInput) (*models.Income, []models.Account, error) {
	if err := validateIncome(input); err != nil {
		return nil, nil, err
	}

	var income *models.Income
	var affected []models.Account
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		income, err = findIncome(tx, userID, incomeID)
		if err != nil {
			return err
		}

		accounts, err := s.ledger.LockAccounts(tx, userID, income.AccountID, input.AccountID)
		if err != nil {
			return err
		}

		if income.Posted {
			if err := s.ledger.Reverse(tx, accounts[income.AccountID], models.LedgerSourceIncome, income.ID); err != nil {
				return err
			}
		}

		income.AccountID = input.AccountID
		income.Description = input.Description
		income.Value = input.Value.Round(2)
		newDate := billing.CalendarDay(input.Date)
		if !newDate.Equal(income.Date) || income.RecurrenceDay == 0 {
			income.RecurrenceDay = newDate.Day()
		}
		income.Date = newDate
		income.IsRecurring = input.IsRecurring
		if !income.IsRecurring {
			income.RecurrenceDay = 0
		}
		if err := tx.Save(income).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		target := accounts[input.AccountID]
		switch {
		case income.Posted:
			if err := s.ledger.Apply(tx, target, Effect{
				SourceType: models.LedgerSourceIncome,
				SourceID:   income.ID,
				Delta:      income.Value,
			}); err != nil {
				return err
			}
		case !income.Date.After(s.calendar.Today()):
			if err := s.post(tx, income, target); err != nil {
				return err
			}
		}

		affected = accountList(accounts)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return income, affected, nil
}

// DeleteIncome reverses a posted income's credit and soft-deletes it.
func (s *incomeService) DeleteIncome(userID, incomeID string) (*models.Account, error) {
	var account *models.Account
	err := s.db.Transaction(func(tx *gorm.DB) error {
		income, err := findIncome(tx, userID, incomeID)
		if err != nil {
			return err
		}

		account, err = s.ledger.LockAccount(tx, userID, income.AccountID)
		if err != nil {
			return err
		}

		if income.Posted {
			if err := s.ledger.Reverse(tx, account, models.LedgerSourceIncome, income.ID); err != nil {
				return err
			}
		}

		if err := tx.Delete(income).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// PostDueIncomes credits every unposted income dated on or before asOf.
// Each income is posted in its own transaction behind a guarded flag flip,
// so a crashed or concurrent run never credits twice. A recurring income
// posted here schedules its next monthly occurrence.
func (s *incomeService) PostDueIncomes(ctx context.Context, asOf time.Time) (int, error) {
	day := billing.CalendarDay(asOf)

	var due []models.Income
	if err := s.db.WithContext(ctx).
		Where("posted = ? AND date <= ?", false, day).
		Order("date ASC").
		Find(&due).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	log := logger.ForJob("post_incomes", day)
	posted := 0
	for i := range due {
		income := &due[i]
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			account, err := s.ledger.LockAccount(tx, income.UserID, income.AccountID)
			if err != nil {
				return err
			}
			if err := s.post(tx, income, account); err != nil {
				return err
			}
			if income.IsRecurring && income.Posted {
				return scheduleNextIncome(tx, income)
			}
			return nil
		})
		if err != nil {
			log.Errorw("failed to post income",
				"income_id", income.ID,
				"account_id", income.AccountID,
				"error", err,
			)
			continue
		}
		if income.Posted {
			posted++
		}
	}

	log.Infow("posted due incomes", "posted", posted, "candidates", len(due))
	return posted, nil
}

// scheduleNextIncome creates next month's occurrence of a recurring income
// unless one already exists. The occurrence lands on the income's recurrence
// day, clamped to the month, so Jan 31 goes to Feb 28 and then Mar 31.
func scheduleNextIncome(tx *gorm.DB, income *models.Income) error {
	anchor := income.RecurrenceDay
	if anchor == 0 {
		anchor = income.Date.Day()
	}
	nextDate := billing.ClampDay(income.Date.Year(), income.Date.Month()+1, anchor, time.UTC)

	var count int64
	if err := tx.Model(&models.Income{}).
		Where("user_id = ? AND account_id = ? AND description = ? AND date = ? AND is_recurring = ?",
			income.UserID, income.AccountID, income.Description, nextDate, true).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil
	}

	next := &models.Income{
		UserID:        income.UserID,
		AccountID:     income.AccountID,
		Description:   income.Description,
		Value:         income.Value,
		Date:          nextDate,
		IsRecurring:   true,
		RecurrenceDay: anchor,
	}
	if err := tx.Create(next).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// accountList flattens locked accounts into a slice ordered by id.
func accountList(accounts map[string]*models.Account) []models.Account {
	list := make([]models.Account, 0, len(accounts))
	for _, a := range accounts {
		list = append(list, *a)
	}
	sortAccounts(list)
	return list
}
