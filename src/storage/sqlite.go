package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"nday-analyzer/src/logger"
	"nday-analyzer/src/models"
)

// -----------------------------------------------------------------------------

type AsyncSQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
	store  runStore
}

// -----------------------------------------------------------------------------

func NewAsyncSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*AsyncSQLiteDB, error) {
	if cfg.Storage.DBPath == "" {
		return nil, fmt.Errorf("storage.db_path is required for sqlite")
	}
	return &AsyncSQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	// Serialize writers.
	db.SetMaxOpenConns(1)
	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	d.store = runStore{
		db:      db,
		runs:    "analysis_runs",
		signals: "analysis_signals",
		logger:  d.Logger,
	}
	if err := d.store.createTables("REAL", "INTEGER"); err != nil {
		return err
	}

	d.Logger.Info("SQLite initialized at %s", dsn)
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveAnalysisRun(run *models.MAnalysisRun) error {
	return d.store.saveRun(run)
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) GetAnalysisRun(id string) (*models.MAnalysisRun, error) {
	return d.store.getRun(id)
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) ListAnalysisRuns(symbol string, limit int) ([]models.MAnalysisRun, error) {
	return d.store.listRuns(symbol, limit)
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	d.Logger.Info("Cleaning up runs older than %d days...", retentionDays)

	n, err := d.store.cleanup(retentionDays)
	if err != nil {
		d.Logger.Error("Cleanup error: %v", err)
		return err
	}

	d.Logger.Info("Cleanup completed, %d runs removed", n)
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
