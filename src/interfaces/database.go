package interfaces

import "quote-bridge/src/models"

// -----------------------------------------------------------------------------
// IJournal defines the contract for the supervisor's diagnostics storage.
// -----------------------------------------------------------------------------

type IJournal interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// RecordLog stores one relayed log entry.
	RecordLog(entry models.MLogEntry) error

	// -----------------------------------------------------------------------------

	// RecordLifecycle stores a worker process transition.
	RecordLifecycle(event models.MLifecycleEvent) error

	// -----------------------------------------------------------------------------

	// RecentLifecycle returns the latest lifecycle events, newest first.
	RecentLifecycle(limit int) ([]models.MLifecycleEvent, error)

	// -----------------------------------------------------------------------------

	// CleanupOldData removes rows older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
