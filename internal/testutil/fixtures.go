package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date builds a UTC calendar date, the form dates are stored in.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates an active BRL account with zero balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()
	return CreateTestAccountWithBalance(t, db, userID, "0")
}

// CreateTestAccountWithBalance creates an account whose balance is backed by
// an opening ledger entry, so reconciliation holds from the start.
func CreateTestAccountWithBalance(t *testing.T, db *gorm.DB, userID string, balance string) *models.Account {
	t.Helper()

	value := decimal.RequireFromString(balance)
	account := &models.Account{
		UserID:   userID,
		Name:     fmt.Sprintf("Test Account %d", nextID()),
		Currency: models.CurrencyBRL,
		Balance:  value,
		Status:   models.AccountStatusActive,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}

	if !value.IsZero() {
		entry := &models.LedgerEntry{
			UserID:     userID,
			AccountID:  account.ID,
			SourceType: models.LedgerSourceOpening,
			SourceID:   account.ID,
			Delta:      value,
			PostedAt:   time.Now().UTC(),
		}
		if err := db.Create(entry).Error; err != nil {
			t.Fatalf("failed to create opening entry: %v", err)
		}
	}
	return account
}

// CreateTestCreditCard creates a card with the given closing and due days.
func CreateTestCreditCard(t *testing.T, db *gorm.DB, userID string, closingDay, dueDay int) *models.CreditCard {
	t.Helper()

	card := &models.CreditCard{
		UserID:     userID,
		Name:       fmt.Sprintf("Test Card %d", nextID()),
		ClosingDay: closingDay,
		DueDay:     dueDay,
		LimitValue: decimal.NewFromInt(5000),
	}
	if err := db.Create(card).Error; err != nil {
		t.Fatalf("failed to create test credit card: %v", err)
	}
	return card
}

// CreateTestCardExpense creates a pending charge on a card.
func CreateTestCardExpense(t *testing.T, db *gorm.DB, userID, cardID, value string, dueDate time.Time) *models.Expense {
	t.Helper()

	cardRef := cardID
	expense := &models.Expense{
		UserID:            userID,
		CreditCardID:      &cardRef,
		Description:       fmt.Sprintf("Card purchase %d", nextID()),
		Value:             decimal.RequireFromString(value),
		DueDate:           dueDate,
		Status:            models.ExpenseStatusPending,
		InstallmentNumber: 1,
		InstallmentTotal:  1,
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test card expense: %v", err)
	}
	return expense
}

// CreateTestAccountExpense creates a pending account expense row without
// touching the balance, for read-side tests.
func CreateTestAccountExpense(t *testing.T, db *gorm.DB, userID, accountID, value string, dueDate time.Time) *models.Expense {
	t.Helper()

	accountRef := accountID
	expense := &models.Expense{
		UserID:            userID,
		AccountID:         &accountRef,
		Description:       fmt.Sprintf("Bill %d", nextID()),
		Value:             decimal.RequireFromString(value),
		DueDate:           dueDate,
		Status:            models.ExpenseStatusPending,
		InstallmentNumber: 1,
		InstallmentTotal:  1,
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test account expense: %v", err)
	}
	return expense
}

// CreateTestBudget creates a budget over [start, end].
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string, budgetType models.BudgetType, cardID *string, planned string, start, end time.Time) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:       userID,
		Name:         fmt.Sprintf("Test Budget %d", nextID()),
		Type:         budgetType,
		CreditCardID: cardID,
		PeriodStart:  start,
		PeriodEnd:    end,
		PlannedValue: decimal.RequireFromString(planned),
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// ReloadAccount reads an account's current state from the database.
func ReloadAccount(t *testing.T, db *gorm.DB, accountID string) *models.Account {
	t.Helper()

	var account models.Account
	if err := db.Where("id = ?", accountID).First(&account).Error; err != nil {
		t.Fatalf("failed to reload account %s: %v", accountID, err)
	}
	return &account
}

// ReloadExpense reads an expense's current state, including soft-deleted rows.
func ReloadExpense(t *testing.T, db *gorm.DB, expenseID string) *models.Expense {
	t.Helper()

	var expense models.Expense
	if err := db.Unscoped().Where("id = ?", expenseID).First(&expense).Error; err != nil {
		t.Fatalf("failed to reload expense %s: %v", expenseID, err)
	}
	return &expense
}
