package interfaces

import (
	"context"

	"quote-bridge/src/models"
)

// -----------------------------------------------------------------------------
// IWorkerController is the command surface of the worker supervisor.
// -----------------------------------------------------------------------------

type IWorkerController interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error

	ConnectSource() error
	StartServer(port int) error
	RequestStatus() error

	GetStatus() models.MStatusSnapshot
	WorkerState() string
}
