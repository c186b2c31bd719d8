// Package app wires configuration, infrastructure and services into the
// binaries and the integration tests.
package app

import (
	"gorm.io/gorm"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/events"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/services"
)

// Services is the full set of business services over one database.
type Services struct {
	Calendar  *services.Calendar
	Users     services.UserServicer
	Accounts  services.AccountServicer
	Incomes   services.IncomeServicer
	Expenses  services.ExpenseServicer
	Transfers services.TransferServicer
	Cards     services.CreditCardServicer
	Billing   services.BillingServicer
	Budgets   services.BudgetServicer
	DailyJob  *services.DailyJob
}

// ServiceOptions carries the collaborators services need beyond the database.
type ServiceOptions struct {
	Calendar  *services.Calendar
	Publisher events.Publisher
	Billing   services.BillingOptions
}

// NewServices builds every service on db. All ledger writers share one Ledger.
func NewServices(db *gorm.DB, opts ServiceOptions) *Services {
	calendar := opts.Calendar
	if calendar == nil {
		calendar = services.NewCalendar(nil)
	}
	ledger := services.NewLedger(calendar)

	incomes := services.NewIncomeService(db, ledger, calendar)
	expenses := services.NewExpenseService(db, ledger, calendar)
	billing := services.NewBillingService(db, ledger, calendar, opts.Publisher, opts.Billing)

	return &Services{
		Calendar:  calendar,
		Users:     services.NewUserService(db),
		Accounts:  services.NewAccountService(db, ledger),
		Incomes:   incomes,
		Expenses:  expenses,
		Transfers: services.NewTransferService(db, ledger),
		Cards:     services.NewCreditCardService(db),
		Billing:   billing,
		Budgets:   services.NewBudgetService(db),
		DailyJob:  services.NewDailyJob(incomes, expenses, billing),
	}
}
