package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/billing"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/models"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
}

// AccountInput holds the fields used to open an account.
type AccountInput struct {
	Name           string
	Description    string
	Currency       string
	OpeningBalance decimal.Decimal
}

// AccountUpdateFields holds optional fields for updating an account.
type AccountUpdateFields struct {
	Name        *string
	Description *string
	Status      *models.AccountStatus
}

// Reconciliation compares an account's stored balance with its ledger.
type Reconciliation struct {
	AccountID   string          `json:"account_id"`
	Balance     decimal.Decimal `json:"balance"`
	LedgerTotal decimal.Decimal `json:"ledger_total"`
	Consistent  bool            `json:"consistent"`
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID string, input AccountInput) (*models.Account, error)
	GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	UpdateAccount(userID, accountID string, fields AccountUpdateFields) (*models.Account, error)
	GetAccountEntries(userID, accountID string, page pagination.PageRequest) (*pagination.PageResponse[models.LedgerEntry], error)
	Reconcile(userID, accountID string) (*Reconciliation, error)
}

// IncomeInput holds the fields of an income.
type IncomeInput struct {
	AccountID   string
	Description string
	Value       decimal.Decimal
	Date        time.Time
	IsRecurring bool
}

// IncomeFilter holds optional filter parameters for listing incomes.
type IncomeFilter struct {
	AccountID *string
	FromDate  *time.Time
	ToDate    *time.Time
	Posted    *bool
}

// IncomeServicer defines the contract for income posting.
type IncomeServicer interface {
	PostIncome(userID string, input IncomeInput) (*models.Income, *models.Account, error)
	GetIncomeByID(userID, incomeID string) (*models.Income, error)
	GetUserIncomes(userID string, page pagination.PageRequest, filter IncomeFilter) (*pagination.PageResponse[models.Income], error)
	EditIncome(userID, incomeID string, input IncomeInput) (*models.Income, []models.Account, error)
	DeleteIncome(userID, incomeID string) (*models.Account, error)
	PostDueIncomes(ctx context.Context, asOf time.Time) (int, error)
}

// ExpenseInput holds the fields of an expense. Exactly one of AccountID
// and CreditCardID must be set.
type ExpenseInput struct {
	AccountID        *string
	CreditCardID     *string
	Description      string
	Category         string
	Value            decimal.Decimal
	DueDate          time.Time
	Status           models.ExpenseStatus
	InstallmentTotal int
	IsRecurring      bool
}

// ExpenseFilter holds optional filter parameters for listing expenses.
type ExpenseFilter struct {
	AccountID    *string
	CreditCardID *string
	Status       *models.ExpenseStatus
	FromDate     *time.Time
	ToDate       *time.Time
}

// ExpenseServicer defines the contract for expense posting.
type ExpenseServicer interface {
	PostExpense(userID string, input ExpenseInput) ([]models.Expense, *models.Account, error)
	GetExpenseByID(userID, expenseID string) (*models.Expense, error)
	GetUserExpenses(userID string, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error)
	EditExpense(userID, expenseID string, input ExpenseInput) (*models.Expense, []models.Account, error)
	DeleteExpense(userID, expenseID string) (*models.Account, error)
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// TransferInput holds the fields of a transfer. A nil side is a third party.
type TransferInput struct {
	FromAccountID *string
	ToAccountID   *string
	Value         decimal.Decimal
	Date          time.Time
	Description   string
}

// TransferServicer defines the contract for transfers between accounts and third parties.
type TransferServicer interface {
	CreateTransfer(userID string, input TransferInput) (*models.Transfer, []models.Account, error)
	GetTransferByID(userID, transferID string) (*models.Transfer, error)
	GetUserTransfers(userID string, page pagination.PageRequest, accountID *string) (*pagination.PageResponse[models.Transfer], error)
	EditTransfer(userID, transferID string, input TransferInput) (*models.Transfer, []models.Account, error)
	DeleteTransfer(userID, transferID string) ([]models.Account, error)
}

// CardInput holds the fields used to register a credit card.
type CardInput struct {
	Name               string
	Brand              string
	ClosingDay         int
	DueDay             int
	LimitValue         decimal.Decimal
	AutoDebit          bool
	AutoDebitAccountID *string
}

// CardUpdateFields holds optional fields for updating a credit card.
type CardUpdateFields struct {
	Name               *string
	Brand              *string
	ClosingDay         *int
	DueDay             *int
	LimitValue         *decimal.Decimal
	AutoDebit          *bool
	AutoDebitAccountID *string
}

// Invoice is the state of one billing period of a card.
type Invoice struct {
	CreditCardID string                     `json:"credit_card_id"`
	Period       billing.Period             `json:"period"`
	Closed       bool                       `json:"closed"`
	Total        decimal.Decimal            `json:"total"`
	Outstanding  decimal.Decimal            `json:"outstanding"`
	PaidAmount   decimal.Decimal            `json:"paid_amount"`
	Expenses     []models.Expense           `json:"expenses"`
	Payments     []models.CreditCardPayment `json:"payments"`
}

// CardUsage summarises how much of a card's limit is taken by unpaid charges.
type CardUsage struct {
	CreditCardID string          `json:"credit_card_id"`
	Limit        decimal.Decimal `json:"limit"`
	Used         decimal.Decimal `json:"used"`
	Available    decimal.Decimal `json:"available"`
}

// CreditCardServicer defines the contract for cards and their invoices.
type CreditCardServicer interface {
	CreateCard(userID string, input CardInput) (*models.CreditCard, error)
	GetCardByID(userID, cardID string) (*models.CreditCard, error)
	GetUserCards(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.CreditCard], error)
	UpdateCard(userID, cardID string, fields CardUpdateFields) (*models.CreditCard, error)
	DeleteCard(userID, cardID string) error
	ComputePeriods(card *models.CreditCard, ref time.Time) (billing.Periods, error)
	GetPeriods(userID, cardID string, ref time.Time) (billing.Periods, error)
	GetInvoice(userID, cardID string, ref time.Time) (*Invoice, error)
	GetUsage(userID, cardID string) (*CardUsage, error)
}

// CloseResult reports what a bill-closing run did.
type CloseResult struct {
	ProcessedCards int   `json:"processed_cards"`
	ClosedBills    int   `json:"closed_bills"`
	ClosedExpenses int64 `json:"closed_expenses"`
	FailedCards    int   `json:"failed_cards"`
}

// PayBillInput describes a card payment. Amount is ignored for full payments.
// ReferenceDate selects the invoice and defaults to PaymentDate.
type PayBillInput struct {
	IsFullPayment bool
	Amount        decimal.Decimal
	PaymentDate   time.Time
	ReferenceDate time.Time
}

// AutoDebitResult reports what an auto-debit run did.
type AutoDebitResult struct {
	DueCards int `json:"due_cards"`
	Paid     int `json:"paid"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// BillingServicer defines the contract for closing and settling card invoices.
type BillingServicer interface {
	CloseDueBills(ctx context.Context, asOf time.Time) (*CloseResult, error)
	CloseBill(ctx context.Context, userID, cardID string, asOf time.Time) (*CloseResult, error)
	PayBill(ctx context.Context, userID, cardID, accountID string, input PayBillInput) (*models.CreditCardPayment, *models.Account, error)
	GetCardPayments(userID, cardID string, page pagination.PageRequest) (*pagination.PageResponse[models.CreditCardPayment], error)
	ProcessAutoDebits(ctx context.Context, asOf time.Time) (*AutoDebitResult, error)
}

// BudgetInput holds the fields of a budget.
type BudgetInput struct {
	Name         string
	Type         models.BudgetType
	CreditCardID *string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	PlannedValue decimal.Decimal
}

// BudgetUpdateFields holds optional fields for updating a budget.
type BudgetUpdateFields struct {
	Name         *string
	PeriodStart  *time.Time
	PeriodEnd    *time.Time
	PlannedValue *decimal.Decimal
}

// UtilizationPolicy selects how paid expenses count towards a general
// budget. Card budgets always leave paid expenses out.
type UtilizationPolicy struct {
	ExcludePaid bool
}

// BudgetProgress contains spending vs budget data for a budget's period.
type BudgetProgress struct {
	BudgetID   string          `json:"budget_id"`
	Planned    decimal.Decimal `json:"planned"`
	Utilized   decimal.Decimal `json:"utilized"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage float64         `json:"percentage"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID string, input BudgetInput) (*models.Budget, error)
	GetUserBudgets(userID string, page pagination.PageRequest, budgetType *models.BudgetType) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, fields BudgetUpdateFields) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
	Utilized(budget *models.Budget, asOf time.Time, policy UtilizationPolicy) (decimal.Decimal, error)
	GetBudgetProgress(userID, budgetID string, asOf time.Time, policy UtilizationPolicy) (*BudgetProgress, error)
}
