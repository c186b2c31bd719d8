package testutil_test

import (
	"testing"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/errors"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/models"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "accounts", "ledger_entries", "incomes", "expenses", "credit_cards", "credit_card_payments", "transfers", "budgets"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, first)
	second := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, second)

	testutil.CreateTestUser(t, first)

	var count int64
	second.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Errorf("expected databases to be isolated, found %d users", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have an ID")
	}

	account := testutil.CreateTestAccountWithBalance(t, db, user.ID, "50.25")
	testutil.AssertDecimal(t, "balance", account.Balance, "50.25")

	var entries int64
	db.Model(&models.LedgerEntry{}).Where("account_id = ?", account.ID).Count(&entries)
	if entries != 1 {
		t.Errorf("expected an opening ledger entry, got %d", entries)
	}

	card := testutil.CreateTestCreditCard(t, db, user.ID, 28, 5)
	if card.ClosingDay != 28 || card.DueDay != 5 {
		t.Errorf("unexpected card days %d/%d", card.ClosingDay, card.DueDay)
	}

	expense := testutil.CreateTestCardExpense(t, db, user.ID, card.ID, "10", testutil.Date(2025, 7, 1))
	if !expense.IsCardCharge() {
		t.Error("expected a card charge")
	}
	if expense.Status != models.ExpenseStatusPending {
		t.Errorf("expected pending status, got %s", expense.Status)
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrAccountNotFound, "custom message")
	testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
