package interfaces

import "context"

// -----------------------------------------------------------------------------
// IQuoteSource is the opaque market-data capability polled by the worker.
// -----------------------------------------------------------------------------

type IQuoteSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// Connect attempts to reach the provider. It may be called again after a
	// failure; it is never retried automatically.
	Connect(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// Fetch returns a single numeric field for a provider symbol. A field with
	// no value returns helpers.ErrFieldUnavailable.
	Fetch(ctx context.Context, symbol, field string) (float64, error)
}
