package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/billing"
	apperrors "github.com/ronieruas/Finance-CursorApp-sub000/internal/errors"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/models"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/pagination"
)

// creditCardService handles cards and read-side invoice queries.
type creditCardService struct {
	db *gorm.DB
}

// NewCreditCardService creates a new CreditCardServicer.
func NewCreditCardService(db *gorm.DB) CreditCardServicer {
	return &creditCardService{db: db}
}

func findCard(db *gorm.DB, userID, cardID string) (*models.CreditCard, error) {
	var card models.CreditCard
	if err := db.Scopes(models.OwnedBy(userID)).Where("id = ?", cardID).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCardNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &card, nil
}

// checkAutoDebitAccount verifies the linked account belongs to the user.
func checkAutoDebitAccount(db *gorm.DB, userID string, accountID *string) error {
	if accountID == nil || *accountID == "" {
		return nil
	}
	var count int64
	if err := db.Model(&models.Account{}).Scopes(models.OwnedBy(userID)).Where("id = ?", *accountID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}

// CreateCard registers a credit card.
func (s *creditCardService) CreateCard(userID string, input CardInput) (*models.CreditCard, error) {
	if input.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "card name is required")
	}
	if err := billing.ValidateDays(input.ClosingDay, input.DueDay); err != nil {
		return nil, apperrors.ErrInvalidBillingDays
	}
	if input.LimitValue.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit_value cannot be negative")
	}
	if input.AutoDebit && (input.AutoDebitAccountID == nil || *input.AutoDebitAccountID == "") {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "auto_debit requires auto_debit_account_id")
	}
	if err := checkAutoDebitAccount(s.db, userID, input.AutoDebitAccountID); err != nil {
		return nil, err
	}

	card := &models.CreditCard{
		UserID:             userID,
		Name:               input.Name,
		Brand:              input.Brand,
		ClosingDay:         input.ClosingDay,
		DueDay:             input.DueDay,
		LimitValue:         input.LimitValue.Round(2),
		AutoDebit:          input.AutoDebit,
		AutoDebitAccountID: input.AutoDebitAccountID,
	}
	if err := s.db.Create(card).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return card, nil
}

// GetCardByID retrieves a card owned by the user.
func (s *creditCardService) GetCardByID(userID, cardID string) (*models.CreditCard, error) {
	return findCard(s.db, userID, cardID)
}

// GetUserCards lists a user's cards.
func (s *creditCardService) GetUserCards(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.CreditCard], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.CreditCard{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var cards []models.CreditCard
	if err := base.Order("name ASC").Scopes(pagination.Paginate(page)).Find(&cards).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(cards, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateCard changes a card's settings. New closing/due days apply to
// periods computed from now on.
func (s *creditCardService) UpdateCard(userID, cardID string, fields CardUpdateFields) (*models.CreditCard, error) {
	card, err := findCard(s.db, userID, cardID)
	if err != nil {
		return nil, err
	}

	closingDay, dueDay := card.ClosingDay, card.DueDay
	if fields.ClosingDay != nil {
		closingDay = *fields.ClosingDay
	}
	if fields.DueDay != nil {
		dueDay = *fields.DueDay
	}
	if err := billing.ValidateDays(closingDay, dueDay); err != nil {
		return nil, apperrors.ErrInvalidBillingDays
	}

	updates := map[string]interface{}{
		"closing_day": closingDay,
		"due_day":     dueDay,
	}
	if fields.Name != nil && *fields.Name != "" {
		updates["name"] = *fields.Name
	}
	if fields.Brand != nil {
		updates["brand"] = *fields.Brand
	}
	if fields.LimitValue != nil {
		if fields.LimitValue.IsNegative() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit_value cannot be negative")
		}
		updates["limit_value"] = fields.LimitValue.Round(2)
	}

	autoDebitAccount := card.AutoDebitAccountID
	if fields.AutoDebitAccountID != nil {
		if err := checkAutoDebitAccount(s.db, userID, fields.AutoDebitAccountID); err != nil {
			return nil, err
		}
		if *fields.AutoDebitAccountID == "" {
			autoDebitAccount = nil
		} else {
			autoDebitAccount = fields.AutoDebitAccountID
		}
		updates["auto_debit_account_id"] = autoDebitAccount
	}
	autoDebit := card.AutoDebit
	if fields.AutoDebit != nil {
		autoDebit = *fields.AutoDebit
		updates["auto_debit"] = autoDebit
	}
	if autoDebit && autoDebitAccount == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "auto_debit requires auto_debit_account_id")
	}

	if err := s.db.Model(card).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return findCard(s.db, userID, cardID)
}

// DeleteCard removes a card that has no charges left.
func (s *creditCardService) DeleteCard(userID, cardID string) error {
	card, err := findCard(s.db, userID, cardID)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.Expense{}).Where("credit_card_id = ?", card.ID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrCardInUse
	}

	if err := s.db.Delete(card).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ComputePeriods returns the card's current and next invoice periods for ref.
func (s *creditCardService) ComputePeriods(card *models.CreditCard, ref time.Time) (billing.Periods, error) {
	periods, err := billing.Compute(card.ClosingDay, card.DueDay, billing.CalendarDay(ref))
	if err != nil {
		return billing.Periods{}, apperrors.ErrInvalidBillingDays
	}
	return periods, nil
}

// GetPeriods loads the card and computes its periods for ref.
func (s *creditCardService) GetPeriods(userID, cardID string, ref time.Time) (billing.Periods, error) {
	card, err := findCard(s.db, userID, cardID)
	if err != nil {
		return billing.Periods{}, err
	}
	return s.ComputePeriods(card, ref)
}

// GetInvoice returns the invoice that is current on ref.
func (s *creditCardService) GetInvoice(userID, cardID string, ref time.Time) (*Invoice, error) {
	card, err := findCard(s.db, userID, cardID)
	if err != nil {
		return nil, err
	}
	periods, err := s.ComputePeriods(card, ref)
	if err != nil {
		return nil, err
	}
	period := periods.Current

	expenses, err := periodExpenses(s.db, card.ID, period, false)
	if err != nil {
		return nil, err
	}

	var payments []models.CreditCardPayment
	if err := s.db.Where("credit_card_id = ? AND period_start = ? AND period_end = ?", card.ID, period.Start, period.End).
		Order("payment_date ASC").
		Find(&payments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	invoice := &Invoice{
		CreditCardID: card.ID,
		Period:       period,
		Total:        decimal.Zero,
		Outstanding:  decimal.Zero,
		PaidAmount:   decimal.Zero,
		Expenses:     expenses,
		Payments:     payments,
	}
	for i := range expenses {
		invoice.Total = invoice.Total.Add(expenses[i].Value)
		if expenses[i].Status != models.ExpenseStatusPaid {
			invoice.Outstanding = invoice.Outstanding.Add(expenses[i].Value)
		}
		if expenses[i].BillClosedAt != nil {
			invoice.Closed = true
		}
	}
	for i := range payments {
		invoice.PaidAmount = invoice.PaidAmount.Add(payments[i].Value)
	}
	if !invoice.Closed && invoice.Outstanding.IsZero() && !billing.CalendarDay(ref).Before(period.ClosingDate) {
		// nothing left to stamp: the period closed with every charge already paid
		invoice.Closed = true
	}
	if invoice.Expenses == nil {
		invoice.Expenses = []models.Expense{}
	}
	if invoice.Payments == nil {
		invoice.Payments = []models.CreditCardPayment{}
	}
	return invoice, nil
}

// GetUsage reports how much of the card's limit unpaid charges take.
func (s *creditCardService) GetUsage(userID, cardID string) (*CardUsage, error) {
	card, err := findCard(s.db, userID, cardID)
	if err != nil {
		return nil, err
	}

	var row struct {
		Total decimal.Decimal
	}
	if err := s.db.Model(&models.Expense{}).
		Select("COALESCE(SUM(value), 0) AS total").
		Where("credit_card_id = ? AND status <> ?", card.ID, models.ExpenseStatusPaid).
		Scan(&row).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	used := row.Total.Round(2)
	return &CardUsage{
		CreditCardID: card.ID,
		Limit:        card.LimitValue,
		Used:         used,
		Available:    card.LimitValue.Sub(used),
	}, nil
}

// periodExpenses returns the card's charges whose due date falls inside the
// period, optionally only the unpaid ones.
func periodExpenses(db *gorm.DB, cardID string, period billing.Period, unpaidOnly bool) ([]models.Expense, error) {
	query := db.Where("credit_card_id = ? AND due_date >= ? AND due_date <= ?", cardID, period.Start, period.End)
	if unpaidOnly {
		query = query.Where("status <> ?", models.ExpenseStatusPaid)
	}

	var expenses []models.Expense
	if err := query.Order("due_date ASC").Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expenses, nil
}
