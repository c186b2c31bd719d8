package integration

import (
	"fmt"
	"net/http"
	"testing"
)

// createBudget creates a July 2025 budget and returns its ID.
func (a *testApp) createBudget(t *testing.T, token, budgetType, cardField, planned string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":"July","type":%q,"period_start":"2025-07-01","period_end":"2025-07-31","planned_value":%q%s}`,
		budgetType, planned, cardField)
	rec := a.request("POST", "/api/v1/budgets", body, token)
	expectStatus(t, rec, http.StatusCreated)
	return parseJSON(t, rec)["budget"].(map[string]interface{})["id"].(string)
}

func (a *testApp) budgetProgress(t *testing.T, token, budgetID, query string) map[string]interface{} {
	t.Helper()
	rec := a.request("GET", "/api/v1/budgets/"+budgetID+"/progress"+query, "", token)
	expectStatus(t, rec, http.StatusOK)
	return parseJSON(t, rec)["progress"].(map[string]interface{})
}

func TestBudgetFlow_Utilization(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "budget@test.com", "password123")
	accountID := app.createAccount(t, token, "Checking", "BRL", "1000.00")
	cardID := app.createCard(t, token, "")

	// Paid on creation, so paid_at is today (07-15)
	rec := app.request("POST", "/api/v1/expenses",
		fmt.Sprintf(`{"account_id":%q,"description":"Rent","value":"200.00","due_date":"2025-07-03","status":"paid"}`, accountID), token)
	expectStatus(t, rec, http.StatusCreated)
	rec = app.request("POST", "/api/v1/expenses",
		fmt.Sprintf(`{"account_id":%q,"description":"Power","value":"300.00","due_date":"2025-07-25"}`, accountID), token)
	expectStatus(t, rec, http.StatusCreated)
	app.chargeCard(t, token, cardID, "100.00", "2025-07-05")
	app.chargeCard(t, token, cardID, "999.00", "2025-08-02")

	generalID := app.createBudget(t, token, "general", "", "1000.00")

	t.Run("general budget counts paid expenses by default", func(t *testing.T) {
		progress := app.budgetProgress(t, token, generalID, "")
		assertMoney(t, "utilized", progress["utilized"], "600")
		assertMoney(t, "remaining", progress["remaining"], "400")
		if progress["percentage"].(float64) != 60 {
			t.Errorf("expected 60%%, got %v", progress["percentage"])
		}
	})

	t.Run("exclude_paid drops expenses paid by the as-of date", func(t *testing.T) {
		progress := app.budgetProgress(t, token, generalID, "?exclude_paid=true&date=2025-07-31")
		assertMoney(t, "utilized", progress["utilized"], "400")
	})

	t.Run("expense paid after the as-of date still counts", func(t *testing.T) {
		progress := app.budgetProgress(t, token, generalID, "?exclude_paid=true&date=2025-07-10")
		assertMoney(t, "utilized", progress["utilized"], "600")
	})

	t.Run("invalid exclude_paid", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/budgets/"+generalID+"/progress?exclude_paid=maybe", "", token)
		expectStatus(t, rec, http.StatusBadRequest)
	})

	allCardsID := app.createBudget(t, token, "card", "", "500.00")
	oneCardID := app.createBudget(t, token, "card", fmt.Sprintf(`,"credit_card_id":%q`, cardID), "500.00")

	for name, id := range map[string]string{"all cards": allCardsID, "one card": oneCardID} {
		progress := app.budgetProgress(t, token, id, "?date=2025-07-31")
		assertMoney(t, name+" before payment", progress["utilized"], "100")
	}

	// Paying the invoice on 07-18 settles the July charge
	rec = app.request("POST", "/api/v1/credit-cards/"+cardID+"/payments",
		fmt.Sprintf(`{"account_id":%q,"is_full_payment":true,"payment_date":"2025-07-18"}`, accountID), token)
	expectStatus(t, rec, http.StatusCreated)

	t.Run("card budget drops paid charges", func(t *testing.T) {
		progress := app.budgetProgress(t, token, allCardsID, "?date=2025-07-31")
		assertMoney(t, "utilized", progress["utilized"], "0")
	})

	t.Run("card budget before the payment date", func(t *testing.T) {
		progress := app.budgetProgress(t, token, oneCardID, "?date=2025-07-17")
		assertMoney(t, "utilized", progress["utilized"], "100")
	})

	t.Run("general budget keeps counting the paid charge", func(t *testing.T) {
		progress := app.budgetProgress(t, token, generalID, "")
		assertMoney(t, "utilized", progress["utilized"], "600")
	})
}

func TestBudgetFlow_CRUD(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "crud@test.com", "password123")
	budgetID := app.createBudget(t, token, "general", "", "800.00")

	rec := app.request("PUT", "/api/v1/budgets/"+budgetID, `{"planned_value":"900.00"}`, token)
	expectStatus(t, rec, http.StatusOK)
	assertMoney(t, "planned", parseJSON(t, rec)["budget"].(map[string]interface{})["planned_value"], "900")

	rec = app.request("GET", "/api/v1/budgets?type=general", "", token)
	expectStatus(t, rec, http.StatusOK)
	if total := parseJSON(t, rec)["total_items"].(float64); total != 1 {
		t.Errorf("expected 1 general budget, got %.0f", total)
	}

	rec = app.request("POST", "/api/v1/budgets",
		`{"name":"Backwards","type":"general","period_start":"2025-07-31","period_end":"2025-07-01","planned_value":"10.00"}`, token)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = app.request("DELETE", "/api/v1/budgets/"+budgetID, "", token)
	expectStatus(t, rec, http.StatusOK)

	rec = app.request("GET", "/api/v1/budgets/"+budgetID, "", token)
	expectStatus(t, rec, http.StatusNotFound)
	if code := errorCode(t, rec); code != "BUDGET_NOT_FOUND" {
		t.Errorf("expected BUDGET_NOT_FOUND, got %s", code)
	}
}
