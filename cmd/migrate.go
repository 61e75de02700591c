package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"royalwager/config"
	"royalwager/database"
)

// MigrateUp applies every pending migration
func MigrateUp(cfg *config.Config) error {
	return database.MigrateUp(cfg.GetDatabaseURL())
}

// MigrateDown rolls back the given number of migrations
func MigrateDown(cfg *config.Config, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	return database.MigrateDown(cfg.GetDatabaseURL(), steps)
}

// MigrateStatus logs the applied schema version
func MigrateStatus(cfg *config.Config) error {
	status, err := database.GetMigrationStatus(cfg.GetDatabaseURL())
	if err != nil {
		return err
	}

	if !status.Applied {
		log.Info("No migrations applied")
		return nil
	}
	log.WithFields(log.Fields{
		"version": status.Version,
		"dirty":   status.Dirty,
	}).Info("Migration status")
	return nil
}
