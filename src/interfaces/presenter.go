package interfaces

import "quote-bridge/src/models"

// -----------------------------------------------------------------------------
// IPresenter receives everything the supervisor surfaces to the UI layer.
// -----------------------------------------------------------------------------

type IPresenter interface {
	OnLog(entry models.MLogEntry)
	OnStatus(snapshot models.MStatusSnapshot)
}
