package logger

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestForJob(t *testing.T) {
	Init("test")
	previous := sugar
	core, logs := observer.New(zap.InfoLevel)
	sugar = zap.New(core).Sugar()
	defer func() { sugar = previous }()

	ForJob("close_bills", time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)).Infow("bill closing run finished", "closed_bills", 2)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["job"] != "close_bills" {
		t.Errorf("expected job close_bills, got %v", fields["job"])
	}
	if fields["as_of"] != "2025-07-10" {
		t.Errorf("expected as_of 2025-07-10, got %v", fields["as_of"])
	}
	if fields["closed_bills"] != int64(2) {
		t.Errorf("expected closed_bills 2, got %v (%T)", fields["closed_bills"], fields["closed_bills"])
	}
}
