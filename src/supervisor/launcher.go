package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"quote-bridge/src/interfaces"
)

// ExecLauncher starts the worker binary with piped stdio.
type ExecLauncher struct {
	Path string
	Args []string
	Dir  string
}

func NewExecLauncher(path string, args ...string) *ExecLauncher {
	return &ExecLauncher{Path: path, Args: args}
}

// Launch starts the process. Its lifetime is not tied to ctx; the
// supervisor stops it explicitly.
func (l *ExecLauncher) Launch(ctx context.Context) (interfaces.IProcess, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(l.Path, l.Args...)
	cmd.Dir = l.Dir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd, stdin: stdin, stdout: stdout, stderr: stderr}, nil
}

// -----------------------------------------------------------------------------

type execProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.Reader
	stderr io.Reader
}

func (p *execProcess) Pid() int              { return p.cmd.Process.Pid }
func (p *execProcess) Stdin() io.WriteCloser { return p.stdin }
func (p *execProcess) Stdout() io.Reader     { return p.stdout }
func (p *execProcess) Stderr() io.Reader     { return p.stderr }

// Wait returns the exit code. A non-zero exit is not an error; a process
// ended by a signal reports -1.
func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return -1, err
	}
	if p.cmd.ProcessState == nil {
		return -1, err
	}
	return p.cmd.ProcessState.ExitCode(), nil
}

func (p *execProcess) Kill() error {
	return p.cmd.Process.Kill()
}
