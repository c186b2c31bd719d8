package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("BILLING_WORKERS", "")
	t.Setenv("BILLING_TIMEZONE", "")
	t.Setenv("REDIS_ADDRESS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.BillingWorkers != 4 {
		t.Errorf("expected 4 billing workers, got %d", cfg.BillingWorkers)
	}
	if cfg.BillingTimezone.String() != "America/Sao_Paulo" {
		t.Errorf("expected America/Sao_Paulo, got %s", cfg.BillingTimezone)
	}
	if cfg.RedisAddress != "" {
		t.Errorf("expected redis to be disabled by default, got %q", cfg.RedisAddress)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BILLING_WORKERS", "8")
	t.Setenv("BILLING_LOCK_TTL", "1m")
	t.Setenv("JWT_EXPIRES_IN", "2h")
	t.Setenv("BILLING_TIMEZONE", "UTC")
	t.Setenv("SCHEDULER_API_KEY", "cron-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BillingWorkers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.BillingWorkers)
	}
	if cfg.BillingLockTTL != time.Minute {
		t.Errorf("expected 1m lock ttl, got %s", cfg.BillingLockTTL)
	}
	if cfg.JWTExpirationDur != 2*time.Hour {
		t.Errorf("expected 2h jwt expiry, got %s", cfg.JWTExpirationDur)
	}
	if cfg.SchedulerAPIKey != "cron-secret" {
		t.Errorf("expected scheduler key to be read, got %q", cfg.SchedulerAPIKey)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("BILLING_WORKERS", "-3")
	t.Setenv("BILLING_TIMEZONE", "Not/AZone")
	t.Setenv("JWT_EXPIRES_IN", "forever")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BillingWorkers != 4 {
		t.Errorf("expected fallback of 4 workers, got %d", cfg.BillingWorkers)
	}
	if cfg.BillingTimezone != time.UTC {
		t.Errorf("expected UTC fallback, got %s", cfg.BillingTimezone)
	}
	if cfg.JWTExpirationDur != 24*time.Hour {
		t.Errorf("expected 24h fallback, got %s", cfg.JWTExpirationDur)
	}
}

func TestLoad_CORSOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, ,https://admin.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://admin.example.com" {
		t.Errorf("expected two trimmed origins, got %v", cfg.CORSOrigins)
	}
}
