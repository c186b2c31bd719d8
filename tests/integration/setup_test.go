package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/app"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/logger"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/middleware"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/services"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/testutil"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/validator"
)

const schedulerKey = "integration-scheduler-key"

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite database. "Today" is pinned to 2025-07-15.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	svc := app.NewServices(db, app.ServiceOptions{
		Calendar: services.FixedCalendar(time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)),
		Billing:  services.BillingOptions{Workers: 2},
	})
	router := app.NewRouter(svc, app.RouterOptions{SchedulerAPIKey: schedulerKey})

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (a *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

// schedulerRequest calls a /billing route the way the external scheduler does.
func (a *testApp) schedulerRequest(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set(middleware.SchedulerHeader, schedulerKey)
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

// expectStatus fails the test when rec does not carry the wanted status.
func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// errorCode extracts the error code from an error envelope.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

// assertMoney compares a JSON money field with want.
func assertMoney(t *testing.T, label string, got interface{}, want string) {
	t.Helper()
	s, ok := got.(string)
	if !ok {
		t.Fatalf("%s: expected money string, got %T %v", label, got, got)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("%s: invalid money %q: %v", label, s, err)
	}
	if !d.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s: expected %s, got %s", label, want, s)
	}
}

// registerUser registers a new user and returns the token and user ID.
func (a *testApp) registerUser(t *testing.T, email, password string) (token, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := a.request("POST", "/api/v1/auth/register", body, "")
	expectStatus(t, rec, http.StatusCreated)
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(string)
}

// loginUser logs in and returns the token.
func (a *testApp) loginUser(t *testing.T, email, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := a.request("POST", "/api/v1/auth/login", body, "")
	expectStatus(t, rec, http.StatusOK)
	return parseJSON(t, rec)["token"].(string)
}

// createAccount opens an account and returns its ID.
func (a *testApp) createAccount(t *testing.T, token, name, currency, opening string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"currency":%q,"opening_balance":%q}`, name, currency, opening)
	rec := a.request("POST", "/api/v1/accounts", body, token)
	expectStatus(t, rec, http.StatusCreated)
	return parseJSON(t, rec)["account"].(map[string]interface{})["id"].(string)
}

// accountBalance reads the stored balance of an account.
func (a *testApp) accountBalance(t *testing.T, token, accountID string) interface{} {
	t.Helper()
	rec := a.request("GET", "/api/v1/accounts/"+accountID, "", token)
	expectStatus(t, rec, http.StatusOK)
	return parseJSON(t, rec)["account"].(map[string]interface{})["balance"]
}

// assertReconciled checks the stored balance matches the ledger.
func (a *testApp) assertReconciled(t *testing.T, token, accountID string) {
	t.Helper()
	rec := a.request("GET", "/api/v1/accounts/"+accountID+"/reconcile", "", token)
	expectStatus(t, rec, http.StatusOK)
	rc := parseJSON(t, rec)["reconciliation"].(map[string]interface{})
	if rc["consistent"] != true {
		t.Errorf("account %s out of balance with its ledger: %v", accountID, rc)
	}
}
