package interfaces

import "quote-bridge/src/models"

// -----------------------------------------------------------------------------
// IUpstream carries worker records to the supervisor.
// -----------------------------------------------------------------------------

type IUpstream interface {
	// Log relays a human readable message
	Log(message string, logType models.LogType)

	// Status relays a partial status update
	Status(update models.MStatusUpdate)
}
