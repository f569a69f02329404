// Command migrate applies, reverts or reports the property schema version.
package main

import (
	"errors"
	"flag"
	"fmt"

	"go.uber.org/zap"

	"brrrr-analyzer/internal/config"
	"brrrr-analyzer/internal/observability"
	"brrrr-analyzer/internal/property"
)

func main() {
	action := flag.String("action", "up", "Migration action: up, down, version")
	flag.Parse()

	if err := config.LoadDotEnv(""); err != nil {
		panic(err)
	}
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if err := observability.InitLogger(cfg.Logging.Level, "console"); err != nil {
		panic(err)
	}
	defer observability.SyncLogger()

	if err := run(cfg.Database.URL, *action); err != nil {
		observability.Logger.Fatal("migration failed", zap.String("action", *action), zap.Error(err))
	}
}

func run(databaseURL, action string) error {
	if databaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	logger := observability.Logger

	switch action {
	case "up":
		logger.Info("running migrations")
		if err := property.RunMigrations(databaseURL); err != nil {
			return err
		}
		logger.Info("migrations completed")

	case "down":
		logger.Info("rolling back last migration")
		if err := property.RollbackMigration(databaseURL); err != nil {
			return err
		}
		logger.Info("migration rolled back")

	case "version":
		version, dirty, err := property.MigrationVersion(databaseURL)
		if err != nil {
			return err
		}
		logger.Info("current schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))

	default:
		return fmt.Errorf("unknown action: %s", action)
	}

	return nil
}
