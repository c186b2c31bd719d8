// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/models"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/uuid"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn installs the custom tags on v.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("account_currency", validateAccountCurrency)
	_ = v.RegisterValidation("budget_type", validateBudgetType)
	_ = v.RegisterValidation("expense_status", validateExpenseStatus)
	_ = v.RegisterValidation("account_status", validateAccountStatus)
	_ = v.RegisterValidation("day_of_month", validateDayOfMonth)
	_ = v.RegisterValidation("calendar_date", validateCalendarDate)
	_ = v.RegisterValidation("uuid_id", validateUUID)
}

func validateAccountCurrency(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case models.CurrencyBRL, models.CurrencyUSD, models.CurrencyEUR:
		return true
	}
	return false
}

func validateBudgetType(fl validator.FieldLevel) bool {
	switch models.BudgetType(fl.Field().String()) {
	case models.BudgetTypeGeneral, models.BudgetTypeCard:
		return true
	}
	return false
}

func validateExpenseStatus(fl validator.FieldLevel) bool {
	switch models.ExpenseStatus(fl.Field().String()) {
	case models.ExpenseStatusPending, models.ExpenseStatusPaid, models.ExpenseStatusOverdue:
		return true
	}
	return false
}

func validateAccountStatus(fl validator.FieldLevel) bool {
	switch models.AccountStatus(fl.Field().String()) {
	case models.AccountStatusActive, models.AccountStatusInactive:
		return true
	}
	return false
}

func validateDayOfMonth(fl validator.FieldLevel) bool {
	day := fl.Field().Int()
	return day >= 1 && day <= 31
}

func validateCalendarDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}

func validateUUID(fl validator.FieldLevel) bool {
	return uuid.IsValid(fl.Field().String())
}
