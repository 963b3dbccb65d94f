package storage

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/lib/pq"

	"nday-analyzer/src/logger"
	"nday-analyzer/src/models"
)

var schemaNameRe = regexp.MustCompile(`[^a-z0-9_]+`)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
	store  runStore
}

// -----------------------------------------------------------------------------

// NewPostgresDB stores runs in a schema named after the service.
func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	if cfg.Storage.DBConnectionString == "" {
		return nil, fmt.Errorf("storage.db_connection_string is required for postgres")
	}

	name := schemaNameRe.ReplaceAllString(strings.ToLower(cfg.Name), "_")
	if name == "" {
		name = "nday_analyzer"
	}

	return &PostgresDB{
		Config: cfg,
		Schema: name,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	d.store = runStore{
		db:      db,
		runs:    fmt.Sprintf(`"%s"."analysis_runs"`, d.Schema),
		signals: fmt.Sprintf(`"%s"."analysis_signals"`, d.Schema),
		dollar:  true,
		logger:  d.Logger,
	}
	if err := d.store.createTables("DOUBLE PRECISION", "BIGINT"); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveAnalysisRun(run *models.MAnalysisRun) error {
	return d.store.saveRun(run)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) GetAnalysisRun(id string) (*models.MAnalysisRun, error) {
	return d.store.getRun(id)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) ListAnalysisRuns(symbol string, limit int) ([]models.MAnalysisRun, error) {
	return d.store.listRuns(symbol, limit)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	n, err := d.store.cleanup(retentionDays)
	if err != nil {
		d.Logger.Error("Cleanup error: %v", err)
		return err
	}

	d.Logger.Info("Postgres cleanup completed: %d runs older than %d days removed", n, retentionDays)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
