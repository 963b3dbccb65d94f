package interfaces

import "nday-analyzer/src/models"

// -----------------------------------------------------------------------------
// IDataExchanger pushes finished analysis runs to external listeners.
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// PublishRun pushes a finished run to subscribed listeners.
	PublishRun(run *models.MAnalysisRun)

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
