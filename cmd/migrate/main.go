package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/config"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/database"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(os.Args[1:]); err != nil {
		logger.Get().Fatalf("Migration error: %v", err)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: migrate <up|down|version> [N]")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return err
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			logger.Get().Warnf("database close error: %v", err)
		}
	}()

	switch command := args[0]; command {
	case "up":
		return dbManager.RunMigrations()

	case "down":
		steps := 1
		if len(args) > 1 {
			steps, err = strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid step count: %w", err)
			}
		}
		return dbManager.RollbackMigrations(steps)

	case "version":
		version, dirty, err := dbManager.MigrationVersion()
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		logger.Get().Infof("Version: %d, Dirty: %v", version, dirty)

	default:
		return fmt.Errorf("unknown command: %s (use up, down, or version)", command)
	}

	return nil
}
