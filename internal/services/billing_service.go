package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/billing"
	apperrors "github.com/ronieruas/Finance-CursorApp-sub000/internal/errors"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/events"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/logger"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/models"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/pagination"
)

// BillingOptions tunes the bill-closing sweep.
type BillingOptions struct {
	// Workers bounds how many cards are closed in parallel.
	Workers int
	// Locker serialises closing runs for the same card across processes.
	// Nil disables cross-process locking; the per-card transaction and the
	// bill_closed_at IS NULL guard still make runs idempotent.
	Locker  *redislock.Client
	LockTTL time.Duration
}

// billingService closes invoices and settles card payments.
type billingService struct {
	db        *gorm.DB
	ledger    *Ledger
	calendar  *Calendar
	publisher events.Publisher
	opts      BillingOptions
}

// NewBillingService creates a new BillingServicer.
func NewBillingService(db *gorm.DB, ledger *Ledger, calendar *Calendar, publisher events.Publisher, opts BillingOptions) BillingServicer {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Second
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &billingService{db: db, ledger: ledger, calendar: calendar, publisher: publisher, opts: opts}
}

// CloseDueBills closes, for every card, the charges of periods whose
// closing date is on or before asOf. Cards run in parallel, each in its own
// transaction. A failing card is logged and counted but does not stop the
// others. Running it again for the same day changes nothing.
func (s *billingService) CloseDueBills(ctx context.Context, asOf time.Time) (*CloseResult, error) {
	var cards []models.CreditCard
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&cards).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	log := logger.ForJob("close_bills", billing.CalendarDay(asOf))
	result := &CloseResult{}
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(s.opts.Workers)
	for i := range cards {
		card := &cards[i]
		g.Go(func() error {
			closed, err := s.closeCardLocked(ctx, card, asOf)

			mu.Lock()
			defer mu.Unlock()
			result.ProcessedCards++
			if err != nil {
				result.FailedCards++
				log.Errorw("failed to close bill", "card_id", card.ID, "error", err)
				return nil
			}
			if closed > 0 {
				result.ClosedBills++
				result.ClosedExpenses += closed
			}
			return nil
		})
	}
	_ = g.Wait()

	log.Infow("bill closing run finished",
		"processed_cards", result.ProcessedCards,
		"closed_bills", result.ClosedBills,
		"closed_expenses", result.ClosedExpenses,
		"failed_cards", result.FailedCards,
	)
	return result, nil
}

// CloseBill closes one card's due charges on demand.
func (s *billingService) CloseBill(ctx context.Context, userID, cardID string, asOf time.Time) (*CloseResult, error) {
	card, err := findCard(s.db.WithContext(ctx), userID, cardID)
	if err != nil {
		return nil, err
	}

	closed, err := s.closeCardLocked(ctx, card, asOf)
	if err != nil {
		return nil, err
	}

	result := &CloseResult{ProcessedCards: 1, ClosedExpenses: closed}
	if closed > 0 {
		result.ClosedBills = 1
	}
	return result, nil
}

// closeCardLocked runs closeCard under the card's distributed lock when one
// is configured. A lock held elsewhere means another run is closing the
// card right now, which is reported as nothing closed.
func (s *billingService) closeCardLocked(ctx context.Context, card *models.CreditCard, asOf time.Time) (int64, error) {
	if s.opts.Locker == nil {
		return s.closeCard(ctx, card, asOf)
	}

	key := fmt.Sprintf("billing:close:%s", card.ID)
	lock, err := s.opts.Locker.Obtain(ctx, key, s.opts.LockTTL, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			logger.Get().Infow("bill closing already running for card", "card_id", card.ID)
			return 0, nil
		}
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	defer func() {
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.Get().Warnw("failed to release bill closing lock", "card_id", card.ID, "error", err)
		}
	}()

	return s.closeCard(ctx, card, asOf)
}

// closeCard stamps bill_closed_at on the card's unpaid charges dated before
// its latest closing date. Only rows not stamped yet are touched.
func (s *billingService) closeCard(ctx context.Context, card *models.CreditCard, asOf time.Time) (int64, error) {
	closingDate := billing.LatestClosing(card.ClosingDay, billing.CalendarDay(asOf))
	now := s.calendar.Instant()

	var closed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Expense{}).
			Where("credit_card_id = ? AND due_date < ? AND bill_closed_at IS NULL AND status <> ?",
				card.ID, closingDate, models.ExpenseStatusPaid).
			Update("bill_closed_at", now)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		closed = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	if closed > 0 {
		logger.Get().Infow("closed bill",
			"card_id", card.ID,
			"closing_date", closingDate.Format("2006-01-02"),
			"closed_expenses", closed,
		)
		events.Emit(ctx, s.publisher, events.TypeBillClosed, now, events.BillClosed{
			UserID:         card.UserID,
			CreditCardID:   card.ID,
			ClosingDate:    closingDate,
			ClosedExpenses: closed,
		})
	}
	return closed, nil
}

// PayBill settles the card invoice that is current on the reference date.
// A full payment charges the sum of its unpaid expenses and flips them all
// to paid; a partial payment is only recorded. The debit is checked
// against the account balance and everything commits together.
func (s *billingService) PayBill(ctx context.Context, userID, cardID, accountID string, input PayBillInput) (*models.CreditCardPayment, *models.Account, error) {
	if accountID == "" {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account_id is required")
	}
	if !input.IsFullPayment && !input.Amount.IsPositive() {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive for a partial payment")
	}

	paymentDate := input.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = s.calendar.Today()
	}
	paymentDate = billing.CalendarDay(paymentDate)
	ref := paymentDate
	if !input.ReferenceDate.IsZero() {
		ref = billing.CalendarDay(input.ReferenceDate)
	}

	card, err := findCard(s.db.WithContext(ctx), userID, cardID)
	if err != nil {
		return nil, nil, err
	}
	periods, err := billing.Compute(card.ClosingDay, card.DueDay, ref)
	if err != nil {
		return nil, nil, apperrors.ErrInvalidBillingDays
	}
	period := periods.Current

	var payment *models.CreditCardPayment
	var account *models.Account
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		account, err = s.ledger.LockAccount(tx, userID, accountID)
		if err != nil {
			return err
		}

		unpaid, err := periodExpenses(tx, card.ID, period, true)
		if err != nil {
			return err
		}

		amount := input.Amount.Round(2)
		if input.IsFullPayment {
			amount = decimal.Zero
			for i := range unpaid {
				amount = amount.Add(unpaid[i].Value)
			}
			if amount.IsZero() {
				return apperrors.ErrNothingToPay
			}
		}

		if err := RequireFunds(account, amount); err != nil {
			return err
		}

		payment = &models.CreditCardPayment{
			UserID:        userID,
			CreditCardID:  card.ID,
			AccountID:     account.ID,
			Value:         amount,
			PaymentDate:   paymentDate,
			IsFullPayment: input.IsFullPayment,
			PeriodStart:   period.Start,
			PeriodEnd:     period.End,
		}
		if err := tx.Create(payment).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := s.ledger.Apply(tx, account, Effect{
			SourceType: models.LedgerSourceCardPayment,
			SourceID:   payment.ID,
			Delta:      amount.Neg(),
		}); err != nil {
			return err
		}

		if !input.IsFullPayment {
			return nil
		}

		ids := make([]string, len(unpaid))
		for i := range unpaid {
			ids[i] = unpaid[i].ID
		}
		if err := tx.Model(&models.Expense{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"status":  models.ExpenseStatusPaid,
				"paid_at": paymentDate,
			}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Get().Infow("card bill paid",
		"card_id", card.ID,
		"account_id", account.ID,
		"value", payment.Value.String(),
		"full_payment", payment.IsFullPayment,
		"period_start", period.Start.Format("2006-01-02"),
	)
	events.Emit(ctx, s.publisher, events.TypeBillPaid, s.calendar.Instant(), events.BillPaid{
		UserID:        userID,
		CreditCardID:  card.ID,
		AccountID:     account.ID,
		PaymentID:     payment.ID,
		Value:         payment.Value,
		IsFullPayment: payment.IsFullPayment,
		PeriodStart:   period.Start,
		PeriodEnd:     period.End,
	})
	return payment, account, nil
}

// GetCardPayments lists the payments made to a card, newest first.
func (s *billingService) GetCardPayments(userID, cardID string, page pagination.PageRequest) (*pagination.PageResponse[models.CreditCardPayment], error) {
	card, err := findCard(s.db, userID, cardID)
	if err != nil {
		return nil, err
	}
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.CreditCardPayment{}).Where("credit_card_id = ?", card.ID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var payments []models.CreditCardPayment
	if err := base.Order("payment_date DESC").Scopes(pagination.Paginate(page)).Find(&payments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(payments, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// ProcessAutoDebits fully pays, from the linked account, every auto-debit
// card whose current invoice is due on asOf. Settled invoices and accounts
// without funds are skipped; re-running on the same day pays nothing twice.
func (s *billingService) ProcessAutoDebits(ctx context.Context, asOf time.Time) (*AutoDebitResult, error) {
	day := billing.CalendarDay(asOf)

	var cards []models.CreditCard
	if err := s.db.WithContext(ctx).
		Where("auto_debit = ? AND auto_debit_account_id IS NOT NULL", true).
		Order("id ASC").
		Find(&cards).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	log := logger.ForJob("auto_debits", day)
	result := &AutoDebitResult{}
	for i := range cards {
		card := &cards[i]
		periods, err := billing.Compute(card.ClosingDay, card.DueDay, day)
		if err != nil || !periods.Current.DueDate.Equal(day) {
			continue
		}
		result.DueCards++

		_, _, err = s.PayBill(ctx, card.UserID, card.ID, *card.AutoDebitAccountID, PayBillInput{
			IsFullPayment: true,
			PaymentDate:   day,
			ReferenceDate: day,
		})
		switch {
		case err == nil:
			result.Paid++
		case errors.Is(err, apperrors.ErrNothingToPay):
			result.Skipped++
		case errors.Is(err, apperrors.ErrInsufficientFunds):
			result.Skipped++
			log.Warnw("auto-debit skipped for lack of funds",
				"card_id", card.ID,
				"account_id", *card.AutoDebitAccountID,
			)
		default:
			result.Failed++
			log.Errorw("auto-debit failed", "card_id", card.ID, "error", err)
		}
	}

	log.Infow("auto-debit run finished",
		"due_cards", result.DueCards,
		"paid", result.Paid,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}
