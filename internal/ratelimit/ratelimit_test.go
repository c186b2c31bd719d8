package ratelimit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestAllowWithoutClient(t *testing.T) {
	l := New(nil, 2, time.Minute)
	for i := 0; i < 5; i++ {
		d := l.Allow(context.Background(), "user-1")
		if !d.Allowed {
			t.Fatalf("request %d: expected allowed without redis", i)
		}
		if d.Remaining != 2 {
			t.Errorf("expected remaining 2, got %d", d.Remaining)
		}
	}
}

func TestAllowFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	l := New(client, 1, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if d := l.Allow(ctx, "user-1"); !d.Allowed {
		t.Error("expected request to be allowed when redis is unreachable")
	}
}

func TestWindowKey(t *testing.T) {
	l := New(nil, 10, time.Minute)
	now := time.Date(2025, 7, 15, 12, 0, 45, 0, time.UTC)

	key, resetIn := l.windowKey("user-1", now)
	if !strings.HasPrefix(key, keyPrefix+"user-1:") {
		t.Errorf("unexpected key %q", key)
	}
	if resetIn != 15*time.Second {
		t.Errorf("expected reset in 15s, got %s", resetIn)
	}

	next, _ := l.windowKey("user-1", now.Add(15*time.Second))
	if next == key {
		t.Error("expected a new window after the boundary")
	}
	same, _ := l.windowKey("user-1", now.Add(10*time.Second))
	if same != key {
		t.Error("expected the same window before the boundary")
	}
}
