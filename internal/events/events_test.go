package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNew(t *testing.T) {
	closing := time.Date(2025, 7, 28, 0, 0, 0, 0, time.UTC)
	occurred := time.Date(2025, 7, 28, 9, 30, 0, 0, time.FixedZone("BRT", -3*60*60))
	event, err := New(TypeBillClosed, occurred, BillClosed{
		UserID:         "user-1",
		CreditCardID:   "card-1",
		ClosingDate:    closing,
		ClosedExpenses: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Type != TypeBillClosed {
		t.Errorf("expected type %s, got %s", TypeBillClosed, event.Type)
	}
	if !event.OccurredAt.Equal(occurred) || event.OccurredAt.Location() != time.UTC {
		t.Errorf("expected OccurredAt %s in UTC, got %s", occurred.UTC(), event.OccurredAt)
	}

	var payload BillClosed
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		t.Fatalf("payload should be valid JSON: %v", err)
	}
	if payload.ClosedExpenses != 3 || !payload.ClosingDate.Equal(closing) {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestBillPaid_ValueEncodedAsString(t *testing.T) {
	event, err := New(TypeBillPaid, time.Now(), BillPaid{Value: decimal.RequireFromString("250.00")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(event.Payload, &raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw["value"] != "250" {
		t.Errorf("expected value to be a decimal string, got %v", raw["value"])
	}
}

type recordingPublisher struct {
	events chan Event
}

func (r *recordingPublisher) Publish(_ context.Context, e Event) error {
	r.events <- e
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func TestEmit(t *testing.T) {
	rec := &recordingPublisher{events: make(chan Event, 1)}
	occurred := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)
	Emit(context.Background(), rec, TypeBillPaid, occurred, BillPaid{PaymentID: "p-1"})

	select {
	case e := <-rec.events:
		if e.Type != TypeBillPaid {
			t.Errorf("expected %s, got %s", TypeBillPaid, e.Type)
		}
		if !e.OccurredAt.Equal(occurred) {
			t.Errorf("expected OccurredAt %s, got %s", occurred, e.OccurredAt)
		}
	default:
		t.Fatal("event was not published")
	}
}

// slowPublisher takes delay to deliver each event and records what it got.
type slowPublisher struct {
	delay     time.Duration
	mu        sync.Mutex
	delivered []Event
	closed    bool
}

func (p *slowPublisher) Publish(ctx context.Context, e Event) error {
	select {
	case <-time.After(p.delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delivered = append(p.delivered, e)
	return nil
}

func (p *slowPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func TestAsyncPublisher(t *testing.T) {
	t.Run("close_drains_in_flight_events", func(t *testing.T) {
		slow := &slowPublisher{delay: 50 * time.Millisecond}
		async := NewAsyncPublisher(slow, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		for i := 0; i < 3; i++ {
			Emit(ctx, async, TypeBillClosed, time.Now(), BillClosed{ClosedExpenses: int64(i)})
		}
		// a finished request must not cancel its events
		cancel()

		if err := async.Close(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		slow.mu.Lock()
		defer slow.mu.Unlock()
		if len(slow.delivered) != 3 {
			t.Errorf("expected 3 delivered events before Close returned, got %d", len(slow.delivered))
		}
		if !slow.closed {
			t.Error("expected the wrapped publisher to be closed")
		}
	})

	t.Run("publish_after_close", func(t *testing.T) {
		async := NewAsyncPublisher(&slowPublisher{}, time.Second)
		if err := async.Close(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		err := async.Publish(context.Background(), Event{Type: TypeBillPaid})
		if !errors.Is(err, ErrPublisherClosed) {
			t.Errorf("expected ErrPublisherClosed, got %v", err)
		}
		if err := async.Close(); err != nil {
			t.Errorf("expected second Close to be a no-op, got %v", err)
		}
	})

	t.Run("drain_is_bounded", func(t *testing.T) {
		slow := &slowPublisher{delay: time.Minute}
		async := NewAsyncPublisher(slow, 20*time.Millisecond)
		Emit(context.Background(), async, TypeBillPaid, time.Now(), BillPaid{})

		start := time.Now()
		if err := async.Close(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed > 5*time.Second {
			t.Errorf("expected Close to give up after the drain timeout, took %s", elapsed)
		}
		if !slow.closed {
			t.Error("expected the wrapped publisher to be closed")
		}
	})
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	if err := p.Publish(context.Background(), Event{Type: TypeBillClosed}); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}
