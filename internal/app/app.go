package app

import (
	"context"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/config"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/database"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/events"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/logger"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/ratelimit"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/services"
)

// App holds the process-wide infrastructure and the services built on it.
type App struct {
	Config    *config.Config
	Database  *database.Manager
	Redis     redis.UniversalClient
	Publisher events.Publisher
	Services  *Services
}

// Options controls start-up steps.
type Options struct {
	RunMigrations bool
}

// eventDrainTimeout bounds how long Close waits for in-flight events.
const eventDrainTimeout = 10 * time.Second

// New connects to postgres and, when configured, Redis and the AMQP broker.
// Optional backends that are configured but unreachable fail start-up.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log := logger.Get()
	a := &App{Config: cfg, Publisher: events.NopPublisher{}}

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return nil, err
	}
	a.Database = dbManager

	if opts.RunMigrations {
		if err := dbManager.RunMigrations(); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	var locker *redislock.Client
	if cfg.RedisAddress != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = client.Close()
			a.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddress, err)
		}
		a.Redis = client
		locker = redislock.New(client)
		log.Infow("redis connected", "address", cfg.RedisAddress)
	} else {
		log.Warn("REDIS_ADDRESS not set: rate limiting and cross-process bill locks are disabled")
	}

	if cfg.AMQPURL != "" {
		publisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to AMQP broker: %w", err)
		}
		a.Publisher = events.NewAsyncPublisher(publisher, eventDrainTimeout)
		log.Infow("publishing billing events", "exchange", cfg.AMQPExchange)
	}

	a.Services = NewServices(dbManager.DB(), ServiceOptions{
		Calendar:  services.NewCalendar(cfg.BillingTimezone),
		Publisher: a.Publisher,
		Billing: services.BillingOptions{
			Workers: cfg.BillingWorkers,
			Locker:  locker,
			LockTTL: cfg.BillingLockTTL,
		},
	})
	return a, nil
}

// Limiter returns the request limiter, open when Redis is not configured.
func (a *App) Limiter() *ratelimit.Limiter {
	return ratelimit.New(a.Redis, a.Config.RateLimit, time.Minute)
}

// RouterOptions derives the HTTP options from the configuration.
func (a *App) RouterOptions() RouterOptions {
	return RouterOptions{
		Limiter:         a.Limiter(),
		SchedulerAPIKey: a.Config.SchedulerAPIKey,
		AllowedOrigins:  a.Config.CORSOrigins,
		Ping:            a.Database.Ping,
	}
}

// Close releases every connection. Safe on a partially built App.
func (a *App) Close() {
	log := logger.Get()
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			log.Warnw("failed to close event publisher", "error", err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.Warnw("failed to close redis client", "error", err)
		}
	}
	if a.Database != nil {
		if err := a.Database.Close(); err != nil {
			log.Warnw("failed to close database", "error", err)
		}
	}
}
