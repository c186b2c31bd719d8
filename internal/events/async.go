package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/logger"
)

// ErrPublisherClosed is returned by AsyncPublisher.Publish after Close.
var ErrPublisherClosed = errors.New("events: publisher closed")

// AsyncPublisher hands each event to the wrapped publisher in its own
// goroutine so callers never wait on the broker. Close drains the in-flight
// publishes, bounded by drainTimeout, before closing the wrapped publisher.
type AsyncPublisher struct {
	next         Publisher
	drainTimeout time.Duration

	mu       sync.Mutex
	closed   bool
	inFlight sync.WaitGroup
}

// NewAsyncPublisher wraps next.
func NewAsyncPublisher(next Publisher, drainTimeout time.Duration) *AsyncPublisher {
	return &AsyncPublisher{next: next, drainTimeout: drainTimeout}
}

// Publish implements Publisher. It returns as soon as the event is queued.
func (p *AsyncPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPublisherClosed
	}

	// the request that produced the event may finish first
	ctx = context.WithoutCancel(ctx)
	p.inFlight.Add(1)
	go func() {
		defer p.inFlight.Done()
		if err := p.next.Publish(ctx, event); err != nil {
			logger.Get().Warnw("failed to publish event", "type", event.Type, "error", err)
		}
	}()
	return nil
}

// Close stops accepting events, waits for in-flight publishes and closes the
// wrapped publisher. Events still pending after drainTimeout are dropped.
func (p *AsyncPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		p.inFlight.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(p.drainTimeout):
		logger.Get().Warnw("gave up waiting for in-flight events", "timeout", p.drainTimeout.String())
	}
	return p.next.Close()
}

// Emit builds an event and publishes it. Failures are logged and never
// returned: the operation that produced the event has already committed.
func Emit(ctx context.Context, publisher Publisher, eventType string, occurredAt time.Time, payload any) {
	event, err := New(eventType, occurredAt, payload)
	if err != nil {
		logger.Get().Errorw("failed to build event", "type", eventType, "error", err)
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Get().Warnw("failed to publish event", "type", eventType, "error", err)
	}
}
