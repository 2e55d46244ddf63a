package supervisor

import (
	"errors"
	"io"
	"strings"

	"quote-bridge/src/control"
	"quote-bridge/src/metrics"
	"quote-bridge/src/models"
)

const sourceWorker = "worker"

// relayStdout parses worker records until the stream closes.
func (s *Supervisor) relayStdout(r io.Reader) {
	if err := control.NewReader(r).Run(s.handleLine); err != nil {
		s.log.Warning("Worker stdout: %v", err)
	}
}

func (s *Supervisor) handleLine(line []byte) {
	rec, err := control.ParseUpstream(line)
	if err != nil {
		// Not a record, surface it as-is
		metrics.ControlRecordsTotal.WithLabelValues("plain").Inc()
		s.publish(models.MLogEntry{Message: string(line), Type: models.LogInfo, Source: sourceWorker})
		return
	}

	switch rec.Type {
	case control.RecordLog:
		metrics.ControlRecordsTotal.WithLabelValues(control.RecordLog).Inc()
		rec.Log.Source = sourceWorker
		s.publish(rec.Log)

	case control.RecordStatus:
		metrics.ControlRecordsTotal.WithLabelValues(control.RecordStatus).Inc()
		s.mu.Lock()
		s.status.Merge(rec.Status)
		snapshot := s.status
		s.mu.Unlock()

		if s.presenter != nil {
			s.presenter.OnStatus(snapshot)
		}
	}
}

// relayStderr surfaces every stderr chunk as an error log.
func (s *Supervisor) relayStderr(r io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if text := strings.TrimSpace(string(buf[:n])); text != "" {
				s.publish(models.MLogEntry{Message: "Worker error: " + text, Type: models.LogError, Source: sourceWorker})
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				s.log.Warning("Worker stderr: %v", err)
			}
			return
		}
	}
}
