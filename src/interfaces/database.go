package interfaces

import "nday-analyzer/src/models"

// -----------------------------------------------------------------------------
// IDatabase defines the contract for storage operations.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveAnalysisRun stores a run with its summary and classified signals.
	SaveAnalysisRun(run *models.MAnalysisRun) error

	// -----------------------------------------------------------------------------

	// GetAnalysisRun loads one run by id. It returns (nil, nil) when absent.
	GetAnalysisRun(id string) (*models.MAnalysisRun, error)

	// -----------------------------------------------------------------------------

	// ListAnalysisRuns returns the latest runs, newest first. An empty symbol
	// lists every symbol.
	ListAnalysisRuns(symbol string, limit int) ([]models.MAnalysisRun, error)

	// -----------------------------------------------------------------------------

	// CleanupOldData removes data older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
