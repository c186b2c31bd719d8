package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/billing"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/logger"
)

// DailyReport summarises one run of the daily billing job.
type DailyReport struct {
	Date          string           `json:"date"`
	MarkedOverdue int64            `json:"marked_overdue"`
	PostedIncomes int              `json:"posted_incomes"`
	Closing       *CloseResult     `json:"closing"`
	AutoDebits    *AutoDebitResult `json:"auto_debits"`
	FailedSteps   []string         `json:"failed_steps,omitempty"`
}

// DailyJob runs the date-driven sweeps in a fixed order. Each step re-derives
// its work from stored state, so running it twice for a date is harmless.
type DailyJob struct {
	incomes  IncomeServicer
	expenses ExpenseServicer
	billing  BillingServicer
}

// NewDailyJob creates a DailyJob.
func NewDailyJob(incomes IncomeServicer, expenses ExpenseServicer, billing BillingServicer) *DailyJob {
	return &DailyJob{incomes: incomes, expenses: expenses, billing: billing}
}

// Run executes every step for asOf. A failing step is recorded and the
// following steps still run; the returned error lists the failed steps.
func (j *DailyJob) Run(ctx context.Context, asOf time.Time) (*DailyReport, error) {
	asOf = billing.CalendarDay(asOf)
	report := &DailyReport{Date: asOf.Format("2006-01-02")}
	log := logger.ForJob("daily", asOf)

	fail := func(step string, err error) {
		report.FailedSteps = append(report.FailedSteps, step)
		log.Errorw("daily job step failed", "step", step, "error", err)
	}

	if n, err := j.expenses.MarkOverdue(ctx, asOf); err != nil {
		fail("mark_overdue", err)
	} else {
		report.MarkedOverdue = n
	}

	if n, err := j.incomes.PostDueIncomes(ctx, asOf); err != nil {
		fail("post_incomes", err)
	} else {
		report.PostedIncomes = n
	}

	if res, err := j.billing.CloseDueBills(ctx, asOf); err != nil {
		fail("close_bills", err)
	} else {
		report.Closing = res
	}

	if res, err := j.billing.ProcessAutoDebits(ctx, asOf); err != nil {
		fail("auto_debits", err)
	} else {
		report.AutoDebits = res
	}

	log.Infow("daily job finished",
		"marked_overdue", report.MarkedOverdue,
		"posted_incomes", report.PostedIncomes,
		"failed_steps", len(report.FailedSteps),
	)

	if len(report.FailedSteps) > 0 {
		return report, fmt.Errorf("daily job: %d step(s) failed: %v", len(report.FailedSteps), report.FailedSteps)
	}
	return report, nil
}
