// Package events publishes billing events for downstream consumers such as
// notification senders. Delivery is the broker's job; publishing never
// blocks or fails the operation that produced the event.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Event types, used as AMQP routing keys.
const (
	TypeBillClosed = "bill.closed"
	TypeBillPaid   = "bill.paid"
)

// Event is the envelope sent to the broker.
type Event struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// BillClosed is published when a card's invoice is closed.
type BillClosed struct {
	UserID         string    `json:"user_id"`
	CreditCardID   string    `json:"credit_card_id"`
	ClosingDate    time.Time `json:"closing_date"`
	ClosedExpenses int64     `json:"closed_expenses"`
}

// BillPaid is published when a payment is recorded against an invoice.
type BillPaid struct {
	UserID        string          `json:"user_id"`
	CreditCardID  string          `json:"credit_card_id"`
	AccountID     string          `json:"account_id"`
	PaymentID     string          `json:"payment_id"`
	Value         decimal.Decimal `json:"value"`
	IsFullPayment bool            `json:"is_full_payment"`
	PeriodStart   time.Time       `json:"period_start"`
	PeriodEnd     time.Time       `json:"period_end"`
}

// New wraps a payload in an Event of the given type. occurredAt comes from
// the caller's clock so tests can pin it.
func New(eventType string, occurredAt time.Time, payload any) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, OccurredAt: occurredAt.UTC(), Payload: body}, nil
}

// Publisher sends events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }
