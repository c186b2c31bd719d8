package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/services"
)

func setupBillingRouter(handler *BillingHandler) *gin.Engine {
	r := gin.New()
	r.POST("/billing/close", handler.CloseDueBills)
	r.POST("/billing/auto-debits", handler.ProcessAutoDebits)
	r.POST("/billing/run", handler.RunDaily)
	return r
}

func TestBillingHandler_CloseDueBills(t *testing.T) {
	t.Run("defaults to today", func(t *testing.T) {
		var gotAsOf time.Time
		billingSvc := &mockBillingService{
			closeDueBillsFn: func(_ context.Context, asOf time.Time) (*services.CloseResult, error) {
				gotAsOf = asOf
				return &services.CloseResult{ProcessedCards: 2, ClosedBills: 1, ClosedExpenses: 4}, nil
			},
		}
		job := services.NewDailyJob(&mockIncomeService{}, &mockExpenseService{}, billingSvc)
		r := setupBillingRouter(NewBillingHandler(billingSvc, job, testCalendar()))

		rec := doRequest(r, "POST", "/billing/close", "")

		assertStatus(t, rec, http.StatusOK)
		if !gotAsOf.Equal(time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("expected 2025-07-15, got %s", gotAsOf)
		}
		result := parseJSON(t, rec)["result"].(map[string]interface{})
		if result["closed_bills"] != float64(1) {
			t.Errorf("expected 1 closed bill, got %v", result["closed_bills"])
		}
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		billingSvc := &mockBillingService{}
		job := services.NewDailyJob(&mockIncomeService{}, &mockExpenseService{}, billingSvc)
		r := setupBillingRouter(NewBillingHandler(billingSvc, job, testCalendar()))

		rec := doRequest(r, "POST", "/billing/close?date=yesterday", "")

		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestBillingHandler_ProcessAutoDebits(t *testing.T) {
	var gotAsOf time.Time
	billingSvc := &mockBillingService{
		processAutoDebitsFn: func(_ context.Context, asOf time.Time) (*services.AutoDebitResult, error) {
			gotAsOf = asOf
			return &services.AutoDebitResult{DueCards: 3, Paid: 2, Skipped: 1}, nil
		},
	}
	job := services.NewDailyJob(&mockIncomeService{}, &mockExpenseService{}, billingSvc)
	r := setupBillingRouter(NewBillingHandler(billingSvc, job, testCalendar()))

	rec := doRequest(r, "POST", "/billing/auto-debits?date=2025-07-20", "")

	assertStatus(t, rec, http.StatusOK)
	if gotAsOf.Day() != 20 {
		t.Errorf("expected the 20th, got %s", gotAsOf)
	}
	result := parseJSON(t, rec)["result"].(map[string]interface{})
	if result["paid"] != float64(2) {
		t.Errorf("expected 2 paid, got %v", result["paid"])
	}
}

func TestBillingHandler_RunDaily(t *testing.T) {
	t.Run("returns 200 when every step succeeds", func(t *testing.T) {
		billingSvc := &mockBillingService{}
		job := services.NewDailyJob(&mockIncomeService{}, &mockExpenseService{}, billingSvc)
		r := setupBillingRouter(NewBillingHandler(billingSvc, job, testCalendar()))

		rec := doRequest(r, "POST", "/billing/run?date=2025-07-20", "")

		assertStatus(t, rec, http.StatusOK)
		report := parseJSON(t, rec)["report"].(map[string]interface{})
		if report["date"] != "2025-07-20" {
			t.Errorf("expected report date 2025-07-20, got %v", report["date"])
		}
		if _, ok := report["failed_steps"]; ok {
			t.Errorf("expected no failed steps, got %v", report["failed_steps"])
		}
	})

	t.Run("returns 500 with the report when a step fails", func(t *testing.T) {
		autoDebitsRan := false
		billingSvc := &mockBillingService{
			closeDueBillsFn: func(context.Context, time.Time) (*services.CloseResult, error) {
				return nil, errors.New("connection reset")
			},
			processAutoDebitsFn: func(context.Context, time.Time) (*services.AutoDebitResult, error) {
				autoDebitsRan = true
				return &services.AutoDebitResult{}, nil
			},
		}
		job := services.NewDailyJob(&mockIncomeService{}, &mockExpenseService{}, billingSvc)
		r := setupBillingRouter(NewBillingHandler(billingSvc, job, testCalendar()))

		rec := doRequest(r, "POST", "/billing/run", "")

		assertStatus(t, rec, http.StatusInternalServerError)
		if !autoDebitsRan {
			t.Error("expected auto-debits to run after a failed close")
		}
		report := parseJSON(t, rec)["report"].(map[string]interface{})
		failed := report["failed_steps"].([]interface{})
		if len(failed) != 1 || failed[0] != "close_bills" {
			t.Errorf("expected close_bills failure, got %v", failed)
		}
	})
}
