package services

import (
	"testing"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/models"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/pagination"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/testutil"
)

func TestCreateCard(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCreditCardService(db)
		user := testutil.CreateTestUser(t, db)

		card, err := svc.CreateCard(user.ID, CardInput{Name: "Gold", Brand: "visa", ClosingDay: 28, DueDay: 5, LimitValue: testutil.Dec("3000")})
		testutil.AssertNoError(t, err)
		if card.ClosingDay != 28 || card.DueDay != 5 {
			t.Errorf("expected days 28/5, got %d/%d", card.ClosingDay, card.DueDay)
		}
	})

	t.Run("invalid_days", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCreditCardService(db)
		user := testutil.CreateTestUser(t, db)

		for _, days := range [][2]int{{0, 5}, {32, 5}, {10, 32}, {10, 0}} {
			_, err := svc.CreateCard(user.ID, CardInput{Name: "Bad", ClosingDay: days[0], DueDay: days[1]})
			testutil.AssertAppError(t, err, "INVALID_BILLING_DAYS")
		}
	})

	t.Run("equal_days", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCreditCardService(db)
		user := testutil.CreateTestUser(t, db)

		card, err := svc.CreateCard(user.ID, CardInput{Name: "Same day", ClosingDay: 10, DueDay: 10})
		testutil.AssertNoError(t, err)

		periods, err := svc.ComputePeriods(card, testutil.Date(2025, 7, 5))
		testutil.AssertNoError(t, err)
		if !periods.Current.DueDate.Equal(testutil.Date(2025, 7, 10)) {
			t.Errorf("expected due date 2025-07-10, got %s", periods.Current.DueDate.Format("2006-01-02"))
		}
	})

	t.Run("auto_debit_requires_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCreditCardService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCard(user.ID, CardInput{Name: "Auto", ClosingDay: 10, DueDay: 20, AutoDebit: true})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("auto_debit_account_of_other_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCreditCardService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, other.ID)

		_, err := svc.CreateCard(user.ID, CardInput{Name: "Auto", ClosingDay: 10, DueDay: 20, AutoDebit: true, AutoDebitAccountID: &account.ID})
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestUpdateCard(t *testing.T) {
	t.Run("change_days", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCreditCardService(db)
		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCreditCard(t, db, user.ID, 28, 5)

		closing := 5
		due := 15
		updated, err := svc.UpdateCard(user.ID, card.ID, CardUpdateFields{ClosingDay: &closing, DueDay: &due})
		testutil.AssertNoError(t, err)
		if updated.ClosingDay != 5 || updated.DueDay != 15 {
			t.Errorf("expected days 5/15, got %d/%d", updated.ClosingDay, updated.DueDay)
		}
	})

	t.Run("due_day_equal_to_closing_day", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCreditCardService(db)
		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCreditCard(t, db, user.ID, 28, 5)

		due := 28
		updated, err := svc.UpdateCard(user.ID, card.ID, CardUpdateFields{DueDay: &due})
		testutil.AssertNoError(t, err)
		if updated.DueDay != 28 {
			t.Errorf("expected due day 28, got %d", updated.DueDay)
		}
	})

	t.Run("days_out_of_range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCreditCardService(db)
		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCreditCard(t, db, user.ID, 28, 5)

		due := 32
		_, err := svc.UpdateCard(user.ID, card.ID, CardUpdateFields{DueDay: &due})
		testutil.AssertAppError(t, err, "INVALID_BILLING_DAYS")
	})

	t.Run("enable_auto_debit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCreditCardService(db)
		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCreditCard(t, db, user.ID, 10, 20)
		account := testutil.CreateTestAccount(t, db, user.ID)

		enabled := true
		_, err := svc.UpdateCard(user.ID, card.ID, CardUpdateFields{AutoDebit: &enabled})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		updated, err := svc.UpdateCard(user.ID, card.ID, CardUpdateFields{AutoDebit: &enabled, AutoDebitAccountID: &account.ID})
		testutil.AssertNoError(t, err)
		if !updated.AutoDebit || updated.AutoDebitAccountID == nil || *updated.AutoDebitAccountID != account.ID {
			t.Error("expected auto-debit from the account to be enabled")
		}
	})
}

func TestDeleteCard(t *testing.T) {
	t.Run("unused", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCreditCardService(db)
		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCreditCard(t, db, user.ID, 28, 5)

		testutil.AssertNoError(t, svc.DeleteCard(user.ID, card.ID))

		_, err := svc.GetCardByID(user.ID, card.ID)
		testutil.AssertAppError(t, err, "CARD_NOT_FOUND")
	})

	t.Run("with_charges", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCreditCardService(db)
		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCreditCard(t, db, user.ID, 28, 5)
		testutil.CreateTestCardExpense(t, db, user.ID, card.ID, "10", testutil.Date(2025, 7, 1))

		err := svc.DeleteCard(user.ID, card.ID)
		testutil.AssertAppError(t, err, "CARD_IN_USE")
	})
}

func TestGetPeriods(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCreditCardService(db)
	user := testutil.CreateTestUser(t, db)
	card := testutil.CreateTestCreditCard(t, db, user.ID, 28, 5)

	periods, err := svc.GetPeriods(user.ID, card.ID, testutil.Date(2025, 7, 26))
	testutil.AssertNoError(t, err)

	current := periods.Current
	if !current.Start.Equal(testutil.Date(2025, 6, 28)) || !current.End.Equal(testutil.Date(2025, 7, 27)) {
		t.Errorf("expected current period 2025-06-28..2025-07-27, got %s..%s",
			current.Start.Format("2006-01-02"), current.End.Format("2006-01-02"))
	}
	if !current.DueDate.Equal(testutil.Date(2025, 8, 5)) {
		t.Errorf("expected due 2025-08-05, got %s", current.DueDate.Format("2006-01-02"))
	}
	if !periods.Next.Start.Equal(testutil.Date(2025, 7, 28)) {
		t.Errorf("expected next period to start 2025-07-28, got %s", periods.Next.Start.Format("2006-01-02"))
	}

	_, err = svc.GetPeriods(testutil.CreateTestUser(t, db).ID, card.ID, testutil.Date(2025, 7, 26))
	testutil.AssertAppError(t, err, "CARD_NOT_FOUND")
}

func TestGetInvoice(t *testing.T) {
	t.Run("current_period_only", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCreditCardService(db)
		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCreditCard(t, db, user.ID, 28, 5)

		testutil.CreateTestCardExpense(t, db, user.ID, card.ID, "100", testutil.Date(2025, 7, 1))
		testutil.CreateTestCardExpense(t, db, user.ID, card.ID, "100", testutil.Date(2025, 7, 10))
		paid := testutil.CreateTestCardExpense(t, db, user.ID, card.ID, "50", testutil.Date(2025, 7, 20))
		db.Model(paid).Update("status", models.ExpenseStatusPaid)
		testutil.CreateTestCardExpense(t, db, user.ID, card.ID, "999", testutil.Date(2025, 7, 28))
		testutil.CreateTestCardExpense(t, db, user.ID, card.ID, "999", testutil.Date(2025, 6, 27))

		invoice, err := svc.GetInvoice(user.ID, card.ID, testutil.Date(2025, 7, 26))
		testutil.AssertNoError(t, err)

		if len(invoice.Expenses) != 3 {
			t.Fatalf("expected 3 expenses, got %d", len(invoice.Expenses))
		}
		testutil.AssertDecimal(t, "total", invoice.Total, "250")
		testutil.AssertDecimal(t, "outstanding", invoice.Outstanding, "200")
		if invoice.Closed {
			t.Error("expected open invoice before its closing date")
		}
		if invoice.Payments == nil {
			t.Error("expected empty payments slice, got nil")
		}
	})

	t.Run("closed_after_stamp", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCreditCardService(db)
		user := testutil.CreateTestUser(t, db)
		card := testutil.CreateTestCreditCard(t, db, user.ID, 10, 20)
		expense := testutil.CreateTestCardExpense(t, db, user.ID, card.ID, "40", testutil.Date(2025, 7, 5))
		db.Model(expense).Update("bill_closed_at", testutil.Date(2025, 7, 10))

		invoice, err := svc.GetInvoice(user.ID, card.ID, testutil.Date(2025, 7, 12))
		testutil.AssertNoError(t, err)
		if !invoice.Closed {
			t.Error("expected invoice to be closed")
		}
	})
}

func TestGetUsage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCreditCardService(db)
	user := testutil.CreateTestUser(t, db)
	card := testutil.CreateTestCreditCard(t, db, user.ID, 28, 5)

	testutil.CreateTestCardExpense(t, db, user.ID, card.ID, "1200.50", testutil.Date(2025, 7, 1))
	testutil.CreateTestCardExpense(t, db, user.ID, card.ID, "300", testutil.Date(2025, 8, 1))
	paid := testutil.CreateTestCardExpense(t, db, user.ID, card.ID, "700", testutil.Date(2025, 6, 1))
	db.Model(paid).Update("status", models.ExpenseStatusPaid)

	usage, err := svc.GetUsage(user.ID, card.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertDecimal(t, "used", usage.Used, "1500.50")
	testutil.AssertDecimal(t, "available", usage.Available, "3499.50")

	cards, err := svc.GetUserCards(user.ID, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if cards.TotalItems != 1 {
		t.Errorf("expected 1 card, got %d", cards.TotalItems)
	}
}
