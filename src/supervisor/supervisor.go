// Package supervisor owns the worker process: spawn, relay of its records,
// exit handling and the graceful-quit-then-kill stop sequence.
package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quote-bridge/src/config"
	"quote-bridge/src/control"
	"quote-bridge/src/helpers"
	"quote-bridge/src/interfaces"
	"quote-bridge/src/logger"
	"quote-bridge/src/metrics"
	"quote-bridge/src/models"
)

const sourceSupervisor = "supervisor"

// Supervisor holds the lifecycle state machine and the merged worker status.
// All state is guarded by mu; presenter and journal callbacks run outside it.
type Supervisor struct {
	cfg       *config.Config
	log       *logger.Logger
	launcher  interfaces.IProcessLauncher
	presenter interfaces.IPresenter
	journal   interfaces.IJournal

	// GracePeriod bounds the wait for a graceful quit before the kill.
	GracePeriod time.Duration
	// RespawnDelay separates stop and start on restart.
	RespawnDelay time.Duration

	mu     sync.Mutex
	state  State
	proc   interfaces.IProcess
	writer *control.Writer
	exited chan struct{}
	killed bool
	status models.MStatusSnapshot

	now func() time.Time
}

func New(cfg *config.Config, log *logger.Logger, launcher interfaces.IProcessLauncher, presenter interfaces.IPresenter, journal interfaces.IJournal) *Supervisor {
	return &Supervisor{
		cfg:          cfg,
		log:          log,
		launcher:     launcher,
		presenter:    presenter,
		journal:      journal,
		GracePeriod:  cfg.GracePeriod(),
		RespawnDelay: cfg.RespawnDelay(),
		status:       models.MStatusSnapshot{Port: cfg.Port},
		now:          time.Now,
	}
}

// -----------------------------------------------------------------------------
// Queries
// -----------------------------------------------------------------------------

func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// WorkerState is State as text, for the presentation layer.
func (s *Supervisor) WorkerState() string {
	return s.State().String()
}

// GetStatus returns a copy of the merged status snapshot.
func (s *Supervisor) GetStatus() models.MStatusSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Start spawns the worker unless one already exists.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateAbsent {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStarting
	s.mu.Unlock()

	s.emit("Starting bridge worker...", models.LogInfo)

	proc, err := s.launcher.Launch(ctx)
	if err != nil {
		s.mu.Lock()
		s.state = StateAbsent
		s.mu.Unlock()

		s.emit(fmt.Sprintf("Failed to start bridge worker: %v", err), models.LogError)
		s.record(models.MLifecycleEvent{Kind: models.LifecycleFailed, Message: err.Error()})
		return helpers.NewProcessFailure("failed to start bridge worker", err)
	}

	exited := make(chan struct{})
	s.mu.Lock()
	s.proc = proc
	s.writer = control.NewWriter(proc.Stdin())
	s.exited = exited
	s.killed = false
	s.state = StateRunning
	s.mu.Unlock()

	metrics.WorkerStartsTotal.Inc()
	metrics.WorkerUp.Set(1)
	s.log.Info("Bridge worker started (pid %d)", proc.Pid())
	s.record(models.MLifecycleEvent{Kind: models.LifecycleSpawned, Pid: proc.Pid()})

	helpers.SafeGo(s.log, "worker-watch", func() { s.watch(proc, exited) })
	return nil
}

// -----------------------------------------------------------------------------

// Stop asks the worker to quit and kills it once the grace period expires.
// It returns after the exit has been handled.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	proc, writer, exited := s.proc, s.writer, s.exited
	s.mu.Unlock()

	if proc == nil {
		return nil
	}

	if err := writer.Command(models.MCommand{Type: models.CmdQuit}); err != nil {
		s.log.Warning("Failed to send quit: %v", err)
	}
	proc.Stdin().Close()

	grace := time.NewTimer(s.GracePeriod)
	defer grace.Stop()

	select {
	case <-exited:
		return nil
	case <-grace.C:
	case <-ctx.Done():
	}

	s.mu.Lock()
	if s.proc == proc {
		s.killed = true
	}
	s.mu.Unlock()

	s.emit(fmt.Sprintf("Bridge worker did not quit within %s, killing it", s.GracePeriod), models.LogWarning)
	if err := proc.Kill(); err != nil {
		s.log.Warning("Kill worker: %v", err)
	}

	reap := time.NewTimer(s.GracePeriod)
	defer reap.Stop()
	select {
	case <-exited:
		return nil
	case <-reap.C:
		return helpers.NewProcessFailure("bridge worker did not exit after kill", nil)
	}
}

// -----------------------------------------------------------------------------

// Restart stops the worker, waits RespawnDelay and starts a new one.
func (s *Supervisor) Restart(ctx context.Context) error {
	if err := s.Stop(ctx); err != nil {
		return err
	}

	select {
	case <-time.After(s.RespawnDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.Start(ctx)
}

// -----------------------------------------------------------------------------
// Commands
// -----------------------------------------------------------------------------

func (s *Supervisor) ConnectSource() error {
	return s.send(models.MCommand{Type: models.CmdConnectSource})
}

// StartServer asks the worker to (re)bind its client listener. Port 0
// selects the configured port.
func (s *Supervisor) StartServer(port int) error {
	if port <= 0 {
		port = s.cfg.Port
	}
	return s.send(models.MCommand{Type: models.CmdStartServer, Port: port})
}

func (s *Supervisor) RequestStatus() error {
	return s.send(models.MCommand{Type: models.CmdGetStatus})
}

func (s *Supervisor) send(cmd models.MCommand) error {
	s.mu.Lock()
	writer := s.writer
	s.mu.Unlock()

	if writer == nil {
		return helpers.ErrWorkerNotRunning
	}
	if err := writer.Command(cmd); err != nil {
		return fmt.Errorf("send %s: %w", cmd.Type, err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Exit handling
// -----------------------------------------------------------------------------

// watch drains both output streams, then reaps the process.
func (s *Supervisor) watch(proc interfaces.IProcess, exited chan struct{}) {
	var wg sync.WaitGroup
	wg.Add(2)
	helpers.SafeGo(s.log, "worker-stdout", func() {
		defer wg.Done()
		s.relayStdout(proc.Stdout())
	})
	helpers.SafeGo(s.log, "worker-stderr", func() {
		defer wg.Done()
		s.relayStderr(proc.Stderr())
	})
	wg.Wait()

	code, err := proc.Wait()
	if err != nil {
		s.log.Warning("Wait for worker: %v", err)
	}
	s.handleExit(proc, code, exited)
}

func (s *Supervisor) handleExit(proc interfaces.IProcess, code int, exited chan struct{}) {
	defer close(exited)

	s.mu.Lock()
	if s.proc != proc {
		s.mu.Unlock()
		return
	}
	killed := s.killed
	s.proc = nil
	s.writer = nil
	s.killed = false
	s.state = StateAbsent
	s.status.Merge(models.DisconnectedUpdate())
	snapshot := s.status
	s.mu.Unlock()

	metrics.WorkerUp.Set(0)
	kind, exitKind := models.LifecycleExited, "clean"
	switch {
	case killed:
		kind, exitKind = models.LifecycleKilled, "killed"
	case code != 0:
		exitKind = "error"
	}
	metrics.WorkerExitsTotal.WithLabelValues(exitKind).Inc()

	message := fmt.Sprintf("Bridge worker exited with code %d", code)
	logType := models.LogInfo
	if code != 0 {
		logType = models.LogError
	}
	s.emit(message, logType)
	s.record(models.MLifecycleEvent{Kind: kind, Pid: proc.Pid(), ExitCode: code, Message: message})

	if s.presenter != nil {
		s.presenter.OnStatus(snapshot)
	}
}

// -----------------------------------------------------------------------------
// Presentation and journal
// -----------------------------------------------------------------------------

func (s *Supervisor) emit(message string, logType models.LogType) {
	s.publish(models.MLogEntry{Message: message, Type: logType, Source: sourceSupervisor})
}

func (s *Supervisor) publish(entry models.MLogEntry) {
	if entry.Timestamp == "" {
		entry.Timestamp = s.now().Format(models.LogTimeLayout)
	}
	s.log.Log(entry.Type, "[%s] %s", entry.Source, entry.Message)

	if s.presenter != nil {
		s.presenter.OnLog(entry)
	}
	if s.journal != nil {
		if err := s.journal.RecordLog(entry); err != nil {
			s.log.Warning("Journal log entry: %v", err)
		}
	}
}

func (s *Supervisor) record(event models.MLifecycleEvent) {
	if s.journal == nil {
		return
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now()
	}
	if err := s.journal.RecordLifecycle(event); err != nil {
		s.log.Warning("Journal lifecycle event: %v", err)
	}
}
