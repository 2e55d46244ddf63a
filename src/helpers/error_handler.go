package helpers

import (
	"errors"
	"fmt"
	"runtime/debug"

	"quote-bridge/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type BridgeError struct {
	Message string
	Cause   error
}

func (e *BridgeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BridgeError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As checks
type ProviderUnavailableError struct{ BridgeError }
type ProtocolError struct{ BridgeError }
type TransportError struct{ BridgeError }
type ProcessFailureError struct{ BridgeError }

func NewProviderUnavailable(msg string, cause error) error {
	return &ProviderUnavailableError{BridgeError{Message: msg, Cause: cause}}
}

func NewProtocolError(msg string, cause error) error {
	return &ProtocolError{BridgeError{Message: msg, Cause: cause}}
}

func NewTransportError(msg string, cause error) error {
	return &TransportError{BridgeError{Message: msg, Cause: cause}}
}

func NewProcessFailure(msg string, cause error) error {
	return &ProcessFailureError{BridgeError{Message: msg, Cause: cause}}
}

// -----------------------------------------------------------------------------
// Sentinels
// -----------------------------------------------------------------------------

var (
	// ErrFieldUnavailable is returned by a quote source when a field has no value.
	ErrFieldUnavailable = errors.New("field unavailable")
	// ErrSourceNotConnected is returned when fetching before Connect succeeded.
	ErrSourceNotConnected = errors.New("quote source not connected")
	// ErrUnknownMessageType marks a well-formed message with an unrecognized type.
	ErrUnknownMessageType = errors.New("unknown message type")
	// ErrWorkerNotRunning is returned when a command is sent with no worker process.
	ErrWorkerNotRunning = errors.New("worker not running")
)

// -----------------------------------------------------------------------------
// Classification
// -----------------------------------------------------------------------------

func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

func IsProviderUnavailable(err error) bool {
	var pe *ProviderUnavailableError
	return errors.As(err, &pe)
}

// -----------------------------------------------------------------------------
// Goroutine safety
// -----------------------------------------------------------------------------

// SafeGo runs fn in a goroutine and logs a recovered panic instead of
// crashing the process.
func SafeGo(log *logger.Logger, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if log != nil {
					log.Error("goroutine %s panicked: %v\n%s", name, r, debug.Stack())
				} else {
					fmt.Printf("goroutine %s panicked: %v\n%s\n", name, r, debug.Stack())
				}
			}
		}()
		fn()
	}()
}
