package control

import (
	"io"
	"sync"
	"time"

	"quote-bridge/src/models"

	"github.com/segmentio/encoding/json"
)

// Writer writes one JSON record per line. It is safe for concurrent use and
// implements interfaces.IUpstream for the worker side.
type Writer struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, now: time.Now}
}

// WriteRecord marshals v and writes it followed by '\n' in a single write.
func (w *Writer) WriteRecord(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = w.w.Write(b)
	return err
}

// Command sends a downstream command.
func (w *Writer) Command(cmd models.MCommand) error {
	return w.WriteRecord(cmd)
}

func (w *Writer) Log(message string, logType models.LogType) {
	_ = w.WriteRecord(logRecord{
		Type:      RecordLog,
		Message:   message,
		LogType:   logType,
		Timestamp: w.now().Format(models.LogTimeLayout),
	})
}

func (w *Writer) Status(update models.MStatusUpdate) {
	if update.IsEmpty() {
		return
	}
	_ = w.WriteRecord(statusRecord{Type: RecordStatus, MStatusUpdate: update})
}
