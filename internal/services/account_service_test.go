package services

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/models"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/pagination"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/testutil"
)

func testCalendar() *Calendar {
	return FixedCalendar(time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC))
}

func TestCreateAccount(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db, NewLedger(testCalendar()))
		user := testutil.CreateTestUser(t, db)

		account, err := svc.CreateAccount(user.ID, AccountInput{Name: "Savings", Description: "rainy day", Currency: "USD"})
		testutil.AssertNoError(t, err)

		if account.ID == "" {
			t.Fatal("expected account ID to be set")
		}
		if account.Currency != models.CurrencyUSD {
			t.Errorf("expected currency USD, got %s", account.Currency)
		}
		if !account.IsActive() {
			t.Error("expected account to be active")
		}
		testutil.AssertDecimal(t, "balance", account.Balance, "0")

		var entries int64
		db.Model(&models.LedgerEntry{}).Where("account_id = ?", account.ID).Count(&entries)
		if entries != 0 {
			t.Errorf("expected no ledger entries, got %d", entries)
		}
	})

	t.Run("with_opening_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db, NewLedger(testCalendar()))
		user := testutil.CreateTestUser(t, db)

		account, err := svc.CreateAccount(user.ID, AccountInput{Name: "Checking", OpeningBalance: testutil.Dec("150.75")})
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, "balance", testutil.ReloadAccount(t, db, account.ID).Balance, "150.75")

		var entry models.LedgerEntry
		if err := db.Where("account_id = ?", account.ID).First(&entry).Error; err != nil {
			t.Fatalf("expected opening entry: %v", err)
		}
		if entry.SourceType != models.LedgerSourceOpening {
			t.Errorf("expected source opening, got %s", entry.SourceType)
		}
		testutil.AssertDecimal(t, "delta", entry.Delta, "150.75")
	})

	t.Run("default_currency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db, NewLedger(testCalendar()))
		user := testutil.CreateTestUser(t, db)

		account, err := svc.CreateAccount(user.ID, AccountInput{Name: "Wallet"})
		testutil.AssertNoError(t, err)
		if account.Currency != models.CurrencyBRL {
			t.Errorf("expected default currency BRL, got %s", account.Currency)
		}
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db, NewLedger(testCalendar()))
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateAccount(user.ID, AccountInput{})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("unsupported_currency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db, NewLedger(testCalendar()))
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateAccount(user.ID, AccountInput{Name: "Crypto", Currency: "BTC"})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetAccounts(t *testing.T) {
	t.Run("lists_only_own_accounts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db, NewLedger(testCalendar()))
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		testutil.CreateTestAccount(t, db, user.ID)
		testutil.CreateTestAccount(t, db, user.ID)
		testutil.CreateTestAccount(t, db, other.ID)

		result, err := svc.GetUserAccounts(user.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 2 {
			t.Errorf("expected 2 accounts, got %d", result.TotalItems)
		}
	})

	t.Run("other_users_account_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db, NewLedger(testCalendar()))
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, other.ID)

		_, err := svc.GetAccountByID(user.ID, account.ID)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestUpdateAccount(t *testing.T) {
	t.Run("deactivate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db, NewLedger(testCalendar()))
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, "40")

		name := "Old bank"
		status := models.AccountStatusInactive
		updated, err := svc.UpdateAccount(user.ID, account.ID, AccountUpdateFields{Name: &name, Status: &status})
		testutil.AssertNoError(t, err)

		if updated.Name != "Old bank" {
			t.Errorf("expected name Old bank, got %s", updated.Name)
		}
		if updated.IsActive() {
			t.Error("expected account to be inactive")
		}
		testutil.AssertDecimal(t, "balance", updated.Balance, "40")
	})

	t.Run("invalid_status", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db, NewLedger(testCalendar()))
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		status := models.AccountStatus("frozen")
		_, err := svc.UpdateAccount(user.ID, account.ID, AccountUpdateFields{Status: &status})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestLedger(t *testing.T) {
	t.Run("apply_and_reverse", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		ledger := NewLedger(testCalendar())
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, "100")

		err := db.Transaction(func(tx *gorm.DB) error {
			locked, err := ledger.LockAccount(tx, user.ID, account.ID)
			if err != nil {
				return err
			}
			if err := ledger.Apply(tx, locked, Effect{SourceType: models.LedgerSourceExpense, SourceID: "exp-1", Delta: testutil.Dec("-30")}); err != nil {
				return err
			}
			return ledger.Reverse(tx, locked, models.LedgerSourceExpense, "exp-1")
		})
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, "balance", testutil.ReloadAccount(t, db, account.ID).Balance, "100")

		var original models.LedgerEntry
		db.Where("account_id = ? AND source_type = ?", account.ID, models.LedgerSourceExpense).First(&original)
		if original.ReversedAt == nil {
			t.Error("expected original entry to be marked reversed")
		}
		var reversal models.LedgerEntry
		db.Where("account_id = ? AND source_type = ?", account.ID, models.LedgerSourceReversal).First(&reversal)
		if reversal.ReversesID == nil || *reversal.ReversesID != original.ID {
			t.Error("expected reversal to point at the original entry")
		}
		testutil.AssertDecimal(t, "reversal delta", reversal.Delta, "30")
	})

	t.Run("reverse_twice_fails", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		ledger := NewLedger(testCalendar())
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, "100")

		err := db.Transaction(func(tx *gorm.DB) error {
			locked, err := ledger.LockAccount(tx, user.ID, account.ID)
			if err != nil {
				return err
			}
			if err := ledger.Apply(tx, locked, Effect{SourceType: models.LedgerSourceIncome, SourceID: "inc-1", Delta: testutil.Dec("10")}); err != nil {
				return err
			}
			if err := ledger.Reverse(tx, locked, models.LedgerSourceIncome, "inc-1"); err != nil {
				return err
			}
			return ledger.Reverse(tx, locked, models.LedgerSourceIncome, "inc-1")
		})
		testutil.AssertAppError(t, err, "LEDGER_INCONSISTENT")

		// the whole transaction rolled back
		testutil.AssertDecimal(t, "balance", testutil.ReloadAccount(t, db, account.ID).Balance, "100")
	})

	t.Run("inactive_account_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		ledger := NewLedger(testCalendar())
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		db.Model(account).Update("status", models.AccountStatusInactive)

		err := db.Transaction(func(tx *gorm.DB) error {
			locked, err := ledger.LockAccount(tx, user.ID, account.ID)
			if err != nil {
				return err
			}
			return ledger.Apply(tx, locked, Effect{SourceType: models.LedgerSourceIncome, SourceID: "inc-1", Delta: testutil.Dec("10")})
		})
		testutil.AssertAppError(t, err, "ACCOUNT_INACTIVE")
	})

	t.Run("lock_accounts_skips_empty_and_duplicates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		ledger := NewLedger(testCalendar())
		user := testutil.CreateTestUser(t, db)
		a := testutil.CreateTestAccount(t, db, user.ID)
		b := testutil.CreateTestAccount(t, db, user.ID)

		var locked map[string]*models.Account
		err := db.Transaction(func(tx *gorm.DB) error {
			var err error
			locked, err = ledger.LockAccounts(tx, user.ID, b.ID, "", a.ID, b.ID)
			return err
		})
		testutil.AssertNoError(t, err)
		if len(locked) != 2 {
			t.Errorf("expected 2 locked accounts, got %d", len(locked))
		}
	})
}

func TestGetAccountEntries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	ledger := NewLedger(testCalendar())
	svc := NewAccountService(db, ledger)
	user := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccountWithBalance(t, db, user.ID, "1000")

	err := db.Transaction(func(tx *gorm.DB) error {
		locked, err := ledger.LockAccount(tx, user.ID, account.ID)
		if err != nil {
			return err
		}
		for i := 0; i < 150; i++ {
			if err := ledger.Apply(tx, locked, Effect{SourceType: models.LedgerSourceExpense, SourceID: fmt.Sprintf("exp-%d", i), Delta: testutil.Dec("-1")}); err != nil {
				return err
			}
		}
		return nil
	})
	testutil.AssertNoError(t, err)

	t.Run("statement_page_exceeds_listing_cap", func(t *testing.T) {
		page, err := svc.GetAccountEntries(user.ID, account.ID, pagination.PageRequest{PageSize: 300})
		testutil.AssertNoError(t, err)
		if page.PageSize != 300 {
			t.Errorf("expected page size 300, got %d", page.PageSize)
		}
		if page.TotalItems < 150 || int64(len(page.Data)) != page.TotalItems {
			t.Errorf("expected every entry on one page, got %d of %d", len(page.Data), page.TotalItems)
		}
	})

	t.Run("clamped_to_ledger_cap", func(t *testing.T) {
		page, err := svc.GetAccountEntries(user.ID, account.ID, pagination.PageRequest{PageSize: 5000})
		testutil.AssertNoError(t, err)
		if page.PageSize != pagination.MaxLedgerPageSize {
			t.Errorf("expected page size %d, got %d", pagination.MaxLedgerPageSize, page.PageSize)
		}
	})

	t.Run("other_account", func(t *testing.T) {
		other := testutil.CreateTestUser(t, db)
		_, err := svc.GetAccountEntries(other.ID, account.ID, pagination.PageRequest{})
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestReconcile(t *testing.T) {
	t.Run("consistent_after_mixed_activity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		cal := testCalendar()
		ledger := NewLedger(cal)
		accounts := NewAccountService(db, ledger)
		incomes := NewIncomeService(db, ledger, cal)
		expenses := NewExpenseService(db, ledger, cal)
		transfers := NewTransferService(db, ledger)
		user := testutil.CreateTestUser(t, db)

		a, err := accounts.CreateAccount(user.ID, AccountInput{Name: "A", OpeningBalance: testutil.Dec("100")})
		testutil.AssertNoError(t, err)
		b, err := accounts.CreateAccount(user.ID, AccountInput{Name: "B"})
		testutil.AssertNoError(t, err)

		income, _, err := incomes.PostIncome(user.ID, IncomeInput{AccountID: a.ID, Description: "Salary", Value: testutil.Dec("1000"), Date: testutil.Date(2025, 7, 5)})
		testutil.AssertNoError(t, err)
		created, _, err := expenses.PostExpense(user.ID, ExpenseInput{AccountID: &a.ID, Description: "Rent", Value: testutil.Dec("400"), DueDate: testutil.Date(2025, 7, 10)})
		testutil.AssertNoError(t, err)
		_, _, err = transfers.CreateTransfer(user.ID, TransferInput{FromAccountID: &a.ID, ToAccountID: &b.ID, Value: testutil.Dec("200"), Date: testutil.Date(2025, 7, 11)})
		testutil.AssertNoError(t, err)
		_, _, err = incomes.EditIncome(user.ID, income.ID, IncomeInput{AccountID: a.ID, Description: "Salary", Value: testutil.Dec("1100"), Date: testutil.Date(2025, 7, 5)})
		testutil.AssertNoError(t, err)
		_, err = expenses.DeleteExpense(user.ID, created[0].ID)
		testutil.AssertNoError(t, err)

		for _, id := range []string{a.ID, b.ID} {
			rec, err := accounts.Reconcile(user.ID, id)
			testutil.AssertNoError(t, err)
			if !rec.Consistent {
				t.Errorf("account %s: balance %s does not match ledger %s", id, rec.Balance, rec.LedgerTotal)
			}
		}
		testutil.AssertDecimal(t, "A balance", testutil.ReloadAccount(t, db, a.ID).Balance, "1000")
		testutil.AssertDecimal(t, "B balance", testutil.ReloadAccount(t, db, b.ID).Balance, "200")

		entries, err := accounts.GetAccountEntries(user.ID, a.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		// opening, income, expense, transfer_out, income reversal, income, expense reversal
		if entries.TotalItems != 7 {
			t.Errorf("expected 7 entries on A, got %d", entries.TotalItems)
		}
	})

	t.Run("detects_direct_balance_write", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db, NewLedger(testCalendar()))
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, "50")
		db.Model(account).Update("balance", testutil.Dec("75"))

		rec, err := svc.Reconcile(user.ID, account.ID)
		testutil.AssertNoError(t, err)
		if rec.Consistent {
			t.Error("expected reconciliation to flag the mismatch")
		}
		testutil.AssertDecimal(t, "ledger total", rec.LedgerTotal, "50")
	})
}
