package worker

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"quote-bridge/src/config"
	"quote-bridge/src/helpers"
	"quote-bridge/src/logger"
	"quote-bridge/src/models"
)

// fakeSource serves fixed field values and counts Fetch calls.
type fakeSource struct {
	mu         sync.Mutex
	calls      int
	values     map[string]float64
	failing    map[string]bool
	blocking   map[string]bool
	connectErr error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		values:   map[string]float64{},
		failing:  map[string]bool{},
		blocking: map[string]bool{},
	}
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connectErr
}

func (f *fakeSource) Fetch(ctx context.Context, symbol, field string) (float64, error) {
	f.mu.Lock()
	f.calls++
	block, fail, v := f.blocking[field], f.failing[field], f.values[field]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if fail {
		return 0, errors.New("provider error")
	}
	if v == 0 {
		return 0, helpers.ErrFieldUnavailable
	}
	return v, nil
}

func (f *fakeSource) set(field string, v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[field] = v
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeUpstream records what the worker relays to the supervisor.
type fakeUpstream struct {
	mu      sync.Mutex
	logs    []models.MLogEntry
	updates []models.MStatusUpdate
	status  models.MStatusSnapshot
}

func (u *fakeUpstream) Log(message string, logType models.LogType) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.logs = append(u.logs, models.MLogEntry{Message: message, Type: logType})
}

func (u *fakeUpstream) Status(update models.MStatusUpdate) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.updates = append(u.updates, update)
	u.status.Merge(update)
}

func (u *fakeUpstream) Snapshot() models.MStatusSnapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.status
}

func (u *fakeUpstream) Updates() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.updates)
}

func (u *fakeUpstream) LastUpdate() models.MStatusUpdate {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.updates) == 0 {
		return models.MStatusUpdate{}
	}
	return u.updates[len(u.updates)-1]
}

func (u *fakeUpstream) HasLog(logType models.LogType, substr string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, l := range u.logs {
		if l.Type == logType && strings.Contains(l.Message, substr) {
			return true
		}
	}
	return false
}

func newTestWorker(t *testing.T, src *fakeSource) (*Worker, *fakeUpstream) {
	t.Helper()
	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.PollIntervalMs = 20

	up := &fakeUpstream{}
	w := New(cfg, logger.NewWriterLogger("worker-test", "ERROR", io.Discard), src, up)
	w.localIP = func() string { return "127.0.0.1" }
	return w, up
}
