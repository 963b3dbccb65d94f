package storage

import (
	"fmt"

	"nday-analyzer/src/interfaces"
	"nday-analyzer/src/logger"
	"nday-analyzer/src/models"
)

// NewDatabase builds and initializes the configured backend. db_type "none"
// returns a nil database and disables run history.
func NewDatabase(cfg *models.MConfig, log *logger.Logger) (interfaces.IDatabase, error) {
	var db interfaces.IDatabase
	var err error

	switch cfg.Storage.DBType {
	case "none":
		log.Info("Run history disabled")
		return nil, nil
	case "postgres":
		db, err = NewPostgresDB(cfg, log)
	case "sqlite", "":
		db, err = NewAsyncSQLiteDB(cfg, log)
	default:
		return nil, fmt.Errorf("unknown db_type %q", cfg.Storage.DBType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to init db: %w", err)
	}

	if err := db.Initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate db: %w", err)
	}
	return db, nil
}
