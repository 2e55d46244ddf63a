package interfaces

import (
	"context"
	"io"
)

// -----------------------------------------------------------------------------
// IProcess is a running worker process as seen by the supervisor.
// -----------------------------------------------------------------------------

type IProcess interface {
	Pid() int
	Stdin() io.WriteCloser
	Stdout() io.Reader
	Stderr() io.Reader

	// Wait blocks until the process exits. Callers must finish reading
	// Stdout and Stderr first.
	Wait() (exitCode int, err error)

	// Kill terminates the process immediately.
	Kill() error
}

// -----------------------------------------------------------------------------
// IProcessLauncher spawns worker processes.
// -----------------------------------------------------------------------------

type IProcessLauncher interface {
	Launch(ctx context.Context) (IProcess, error)
}
