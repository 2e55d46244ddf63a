package supervisor

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quote-bridge/src/config"
	"quote-bridge/src/control"
	"quote-bridge/src/interfaces"
	"quote-bridge/src/logger"
	"quote-bridge/src/models"

	"github.com/stretchr/testify/require"
)

// fakeProcess is a worker whose stdio are in-memory pipes.
type fakeProcess struct {
	pid        int
	ignoreQuit bool

	stdinR, stdoutR, stderrR *io.PipeReader
	stdinW, stdoutW, stderrW *io.PipeWriter

	commands chan models.MCommand
	exitCode chan int
	once     sync.Once
	killed   atomic.Bool
}

func newFakeProcess(pid int, ignoreQuit bool) *fakeProcess {
	p := &fakeProcess{
		pid:        pid,
		ignoreQuit: ignoreQuit,
		commands:   make(chan models.MCommand, 16),
		exitCode:   make(chan int, 1),
	}
	p.stdinR, p.stdinW = io.Pipe()
	p.stdoutR, p.stdoutW = io.Pipe()
	p.stderrR, p.stderrW = io.Pipe()
	go p.serveStdin()
	return p
}

func (p *fakeProcess) serveStdin() {
	control.NewReader(p.stdinR).Run(func(line []byte) {
		cmd, err := control.ParseCommand(line)
		if err != nil {
			return
		}
		p.commands <- cmd
		if cmd.Type == models.CmdQuit && !p.ignoreQuit {
			p.exit(0)
		}
	})
	if !p.ignoreQuit {
		p.exit(0)
	}
}

// exit closes the output streams and makes Wait return code.
func (p *fakeProcess) exit(code int) {
	p.once.Do(func() {
		p.stdoutW.Close()
		p.stderrW.Close()
		p.stdinR.CloseWithError(io.ErrClosedPipe)
		p.exitCode <- code
	})
}

func (p *fakeProcess) writeStdout(t *testing.T, s string) {
	t.Helper()
	_, err := p.stdoutW.Write([]byte(s))
	require.NoError(t, err)
}

func (p *fakeProcess) writeStderr(t *testing.T, s string) {
	t.Helper()
	_, err := p.stderrW.Write([]byte(s))
	require.NoError(t, err)
}

func (p *fakeProcess) nextCommand(t *testing.T) models.MCommand {
	t.Helper()
	select {
	case cmd := <-p.commands:
		return cmd
	case <-time.After(2 * time.Second):
		t.Fatal("no command received")
		return models.MCommand{}
	}
}

func (p *fakeProcess) Pid() int              { return p.pid }
func (p *fakeProcess) Stdin() io.WriteCloser { return p.stdinW }
func (p *fakeProcess) Stdout() io.Reader     { return p.stdoutR }
func (p *fakeProcess) Stderr() io.Reader     { return p.stderrR }
func (p *fakeProcess) Wait() (int, error)    { return <-p.exitCode, nil }

func (p *fakeProcess) Kill() error {
	p.killed.Store(true)
	p.exit(-1)
	return nil
}

// fakeLauncher hands out queued processes and counts launches.
type fakeLauncher struct {
	mu       sync.Mutex
	procs    []*fakeProcess
	launches int
	err      error
}

func (l *fakeLauncher) Launch(ctx context.Context) (interfaces.IProcess, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launches++
	if l.err != nil {
		return nil, l.err
	}
	if len(l.procs) == 0 {
		return nil, errors.New("no fake process queued")
	}
	p := l.procs[0]
	l.procs = l.procs[1:]
	return p, nil
}

func (l *fakeLauncher) Launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}

// recordingPresenter keeps everything surfaced to the UI.
type recordingPresenter struct {
	mu       sync.Mutex
	logs     []models.MLogEntry
	statuses []models.MStatusSnapshot
}

func (r *recordingPresenter) OnLog(entry models.MLogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, entry)
}

func (r *recordingPresenter) OnStatus(snapshot models.MStatusSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, snapshot)
}

func (r *recordingPresenter) Statuses() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.statuses)
}

func (r *recordingPresenter) FindLog(substr string) (models.MLogEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.logs {
		if strings.Contains(l.Message, substr) {
			return l, true
		}
	}
	return models.MLogEntry{}, false
}

// memoryJournal records lifecycle events in memory.
type memoryJournal struct {
	mu     sync.Mutex
	logs   []models.MLogEntry
	events []models.MLifecycleEvent
}

func (j *memoryJournal) Initialize() error     { return nil }
func (j *memoryJournal) CleanupOldData() error { return nil }
func (j *memoryJournal) Close() error          { return nil }

func (j *memoryJournal) RecordLog(entry models.MLogEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.logs = append(j.logs, entry)
	return nil
}

func (j *memoryJournal) RecordLifecycle(event models.MLifecycleEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, event)
	return nil
}

func (j *memoryJournal) RecentLifecycle(limit int) ([]models.MLifecycleEvent, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]models.MLifecycleEvent, 0, len(j.events))
	for i := len(j.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, j.events[i])
	}
	return out, nil
}

func (j *memoryJournal) Kinds() []models.LifecycleKind {
	j.mu.Lock()
	defer j.mu.Unlock()
	var kinds []models.LifecycleKind
	for _, e := range j.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func newTestSupervisor(t *testing.T, procs ...*fakeProcess) (*Supervisor, *fakeLauncher, *recordingPresenter, *memoryJournal) {
	t.Helper()
	launcher := &fakeLauncher{procs: procs}
	presenter := &recordingPresenter{}
	journal := &memoryJournal{}

	s := New(config.Default(), logger.NewWriterLogger("supervisor-test", "ERROR", io.Discard), launcher, presenter, journal)
	s.GracePeriod = 100 * time.Millisecond
	s.RespawnDelay = 10 * time.Millisecond
	t.Cleanup(func() { s.Stop(context.Background()) })
	return s, launcher, presenter, journal
}
