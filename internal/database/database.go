package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/logger"
)

// Manager owns the connection pool and applies schema migrations.
type Manager struct {
	db     *gorm.DB
	config *Config
}

// NewManager opens the pool. Timestamps are written in UTC so stored
// calendar dates do not drift with the server timezone.
func NewManager(config *Config) (*Manager, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  config.DSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Manager{db: db, config: config}, nil
}

func (m *Manager) migrator() (*migrate.Migrate, error) {
	mig, err := migrate.New("file://"+m.config.MigrationsPath, m.config.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return mig, nil
}

func closeMigrator(mig *migrate.Migrate) {
	srcErr, dbErr := mig.Close()
	if srcErr != nil {
		logger.Get().Warnf("migrate source close error: %v", srcErr)
	}
	if dbErr != nil {
		logger.Get().Warnf("migrate database close error: %v", dbErr)
	}
}

// RunMigrations applies every pending migration.
func (m *Manager) RunMigrations() error {
	logger.Get().Infow("running database migrations", "path", m.config.MigrationsPath)

	mig, err := m.migrator()
	if err != nil {
		return err
	}
	defer closeMigrator(mig)

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, _ := mig.Version()
	logger.Get().Infow("database migrations completed", "version", version, "dirty", dirty)
	return nil
}

// RollbackMigrations reverts the given number of migrations.
func (m *Manager) RollbackMigrations(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}

	mig, err := m.migrator()
	if err != nil {
		return err
	}
	defer closeMigrator(mig)

	if err := mig.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rollback failed: %w", err)
	}
	logger.Get().Infow("rolled back migrations", "steps", steps)
	return nil
}

// MigrationVersion reports the applied schema version.
func (m *Manager) MigrationVersion() (uint, bool, error) {
	mig, err := m.migrator()
	if err != nil {
		return 0, false, err
	}
	defer closeMigrator(mig)

	version, dirty, err := mig.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Ping checks the connection is usable.
func (m *Manager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the pool.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the underlying GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}
