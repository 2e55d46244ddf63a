package models

type LogType string

const (
	LogInfo    LogType = "info"
	LogSuccess LogType = "success"
	LogWarning LogType = "warning"
	LogError   LogType = "error"
)

// MLogEntry is a log line relayed to the presentation layer.
type MLogEntry struct {
	Message   string  `json:"message"`
	Type      LogType `json:"type"`
	Timestamp string  `json:"timestamp"`
	Source    string  `json:"source,omitempty"` // "supervisor" or "worker"
}

// LogTimeLayout matches the short clock time shown in the UI log pane.
const LogTimeLayout = "15:04:05"
