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

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget creates a new budget
func (s *budgetService) CreateBudget(userID string, input BudgetInput) (*models.Budget, error) {
	if input.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name is required")
	}
	if !input.PlannedValue.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "planned_value must be positive")
	}
	if input.PeriodStart.IsZero() || input.PeriodEnd.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "period_start and period_end are required")
	}
	start, end := billing.CalendarDay(input.PeriodStart), billing.CalendarDay(input.PeriodEnd)
	if end.Before(start) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "period_end must not be before period_start")
	}

	switch input.Type {
	case models.BudgetTypeGeneral:
		if input.CreditCardID != nil && *input.CreditCardID != "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "a general budget cannot reference a credit card")
		}
		input.CreditCardID = nil
	case models.BudgetTypeCard:
		if input.CreditCardID != nil && *input.CreditCardID == "" {
			input.CreditCardID = nil
		}
		if input.CreditCardID != nil {
			if _, err := findCard(s.db, userID, *input.CreditCardID); err != nil {
				return nil, err
			}
		}
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be general or card")
	}

	budget := &models.Budget{
		UserID:       userID,
		Name:         input.Name,
		Type:         input.Type,
		CreditCardID: input.CreditCardID,
		PeriodStart:  start,
		PeriodEnd:    end,
		PlannedValue: input.PlannedValue.Round(2),
	}

	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return budget, nil
}

// GetUserBudgets retrieves a paginated list of budgets for a user, optionally by type.
func (s *budgetService) GetUserBudgets(userID string, page pagination.PageRequest, budgetType *models.BudgetType) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	query := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if budgetType != nil {
		query = query.Where("type = ?", *budgetType)
	}

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := query.Order("period_start DESC").Scopes(pagination.Paginate(page)).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID retrieves a budget by ID for a specific user
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Scopes(models.OwnedBy(userID)).Where("id = ?", budgetID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget updates a budget
func (s *budgetService) UpdateBudget(userID, budgetID string, fields BudgetUpdateFields) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	start, end := budget.PeriodStart, budget.PeriodEnd
	if fields.PeriodStart != nil {
		start = billing.CalendarDay(*fields.PeriodStart)
	}
	if fields.PeriodEnd != nil {
		end = billing.CalendarDay(*fields.PeriodEnd)
	}
	if end.Before(start) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "period_end must not be before period_start")
	}

	updates := map[string]interface{}{
		"period_start": start,
		"period_end":   end,
	}
	if fields.Name != nil && *fields.Name != "" {
		updates["name"] = *fields.Name
	}
	if fields.PlannedValue != nil {
		if !fields.PlannedValue.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "planned_value must be positive")
		}
		updates["planned_value"] = fields.PlannedValue.Round(2)
	}

	if err := s.db.Model(budget).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.GetBudgetByID(userID, budgetID)
}

// DeleteBudget soft-deletes a budget
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return nil
}

// Utilized sums the owner's expenses that count towards the budget in its
// period. General budgets count every expense, leaving paid ones out only
// when the policy asks for it; card budgets count unpaid card charges of
// their card, or of any card when none is set. An expense counts as paid
// if it was paid on or before asOf. Each expense row is summed once.
func (s *budgetService) Utilized(budget *models.Budget, asOf time.Time, policy UtilizationPolicy) (decimal.Decimal, error) {
	query := s.db.Model(&models.Expense{}).
		Select("COALESCE(SUM(value), 0) AS total").
		Where("user_id = ? AND due_date >= ? AND due_date <= ?", budget.UserID, budget.PeriodStart, budget.PeriodEnd)

	excludePaid := policy.ExcludePaid
	if budget.Type == models.BudgetTypeCard {
		excludePaid = true
		if budget.CreditCardID != nil {
			query = query.Where("credit_card_id = ?", *budget.CreditCardID)
		} else {
			query = query.Where("credit_card_id IS NOT NULL")
		}
	}
	if excludePaid {
		// paid after asOf still counts as unpaid at asOf
		endOfDay := billing.CalendarDay(asOf).AddDate(0, 0, 1)
		query = query.Where("NOT (status = ? AND (paid_at IS NULL OR paid_at < ?))", models.ExpenseStatusPaid, endOfDay)
	}

	var row struct {
		Total decimal.Decimal
	}
	if err := query.Scan(&row).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return row.Total.Round(2), nil
}

// GetBudgetProgress returns planned vs utilized figures for a budget.
func (s *budgetService) GetBudgetProgress(userID, budgetID string, asOf time.Time, policy UtilizationPolicy) (*BudgetProgress, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	utilized, err := s.Utilized(budget, asOf, policy)
	if err != nil {
		return nil, err
	}

	var percentage float64
	if budget.PlannedValue.IsPositive() {
		percentage, _ = utilized.Div(budget.PlannedValue).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	}

	return &BudgetProgress{
		BudgetID:   budget.ID,
		Planned:    budget.PlannedValue,
		Utilized:   utilized,
		Remaining:  budget.PlannedValue.Sub(utilized),
		Percentage: percentage,
	}, nil
}
