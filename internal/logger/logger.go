// Package logger provides structured logging using Zap.
package logger

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init initializes the global logger for the given environment.
// For "production", it uses a JSON encoder. For all other environments,
// it uses a human-readable console encoder.
func Init(env string) {
	once.Do(func() {
		var base *zap.Logger
		var err error

		if env == "production" {
			base, err = zap.NewProduction()
		} else {
			base, err = zap.NewDevelopment()
		}

		if err != nil {
			// Fallback to nop logger if initialization fails.
			base = zap.NewNop()
		}

		sugar = base.Sugar()
	})
}

// Get returns the global sugared logger.
// If Init has not been called, it initializes a development logger.
// Safe for concurrent use: once.Do orders the first write before every read.
func Get() *zap.SugaredLogger {
	Init("development")
	return sugar
}

// ForJob returns the global logger tagged with a daily job step and the
// calendar date it runs for, so every line of a run can be filtered together.
func ForJob(step string, asOf time.Time) *zap.SugaredLogger {
	return Get().With("job", step, "as_of", asOf.Format("2006-01-02"))
}

// Sync flushes any buffered log entries. Call this before application exit.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
