// Command billing-worker runs the daily billing job once and exits. An
// external scheduler invokes it every day; re-running a date is harmless.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/app"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/config"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(os.Args[1:]); err != nil {
		logger.Get().Fatalf("Billing worker error: %v", err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("billing-worker", flag.ContinueOnError)
	date := fs.String("date", "", "run date as YYYY-MM-DD (default: today in BILLING_TIMEZONE)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		return err
	}
	defer application.Close()

	asOf := application.Services.Calendar.Today()
	if *date != "" {
		asOf, err = time.ParseInLocation("2006-01-02", *date, time.UTC)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", *date, err)
		}
	}

	report, err := application.Services.DailyJob.Run(ctx, asOf)
	if report != nil {
		logger.Get().Infow("billing worker report",
			"date", report.Date,
			"marked_overdue", report.MarkedOverdue,
			"posted_incomes", report.PostedIncomes,
			"closing", report.Closing,
			"auto_debits", report.AutoDebits,
		)
	}
	return err
}
