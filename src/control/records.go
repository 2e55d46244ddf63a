package control

import (
	"fmt"

	"quote-bridge/src/helpers"
	"quote-bridge/src/models"

	"github.com/segmentio/encoding/json"
)

// Upstream record types.
const (
	RecordLog    = "log"
	RecordStatus = "status"
)

// legacyConnectCommand is accepted as an alias of connect-source.
const legacyConnectCommand = "connect-tos"

type envelope struct {
	Type string `json:"type"`
}

type logRecord struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	LogType   models.LogType `json:"logType"`
	Timestamp string         `json:"timestamp"`
}

type statusRecord struct {
	Type string `json:"type"`
	models.MStatusUpdate
}

// UpstreamRecord is a decoded worker record: either a log entry or a
// partial status update, selected by Type.
type UpstreamRecord struct {
	Type   string
	Log    models.MLogEntry
	Status models.MStatusUpdate
}

// -----------------------------------------------------------------------------
// Commands (supervisor -> worker)
// -----------------------------------------------------------------------------

// ParseCommand decodes one downstream line. start-server without a port
// gets models.DefaultPort.
func ParseCommand(line []byte) (models.MCommand, error) {
	var cmd models.MCommand
	if err := json.Unmarshal(line, &cmd); err != nil {
		return models.MCommand{}, helpers.NewProtocolError("invalid command", err)
	}

	switch cmd.Type {
	case models.CmdConnectSource, models.CmdGetStatus, models.CmdQuit:
		return models.MCommand{Type: cmd.Type}, nil
	case legacyConnectCommand:
		return models.MCommand{Type: models.CmdConnectSource}, nil
	case models.CmdStartServer:
		if cmd.Port <= 0 {
			cmd.Port = models.DefaultPort
		}
		if cmd.Port > 65535 {
			return models.MCommand{}, helpers.NewProtocolError(fmt.Sprintf("invalid port %d", cmd.Port), nil)
		}
		return cmd, nil
	case "":
		return models.MCommand{}, helpers.NewProtocolError("command has no type", nil)
	default:
		return models.MCommand{}, fmt.Errorf("%w: %s", helpers.ErrUnknownMessageType, cmd.Type)
	}
}

// -----------------------------------------------------------------------------
// Records (worker -> supervisor)
// -----------------------------------------------------------------------------

// ParseUpstream decodes one upstream line.
func ParseUpstream(line []byte) (UpstreamRecord, error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return UpstreamRecord{}, helpers.NewProtocolError("invalid record", err)
	}

	switch env.Type {
	case RecordLog:
		var rec logRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return UpstreamRecord{}, helpers.NewProtocolError("invalid log record", err)
		}
		logType := rec.LogType
		switch logType {
		case models.LogInfo, models.LogSuccess, models.LogWarning, models.LogError:
		default:
			logType = models.LogInfo
		}
		return UpstreamRecord{
			Type: RecordLog,
			Log:  models.MLogEntry{Message: rec.Message, Type: logType, Timestamp: rec.Timestamp},
		}, nil

	case RecordStatus:
		var rec statusRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return UpstreamRecord{}, helpers.NewProtocolError("invalid status record", err)
		}
		return UpstreamRecord{Type: RecordStatus, Status: rec.MStatusUpdate}, nil

	default:
		return UpstreamRecord{}, fmt.Errorf("%w: %q", helpers.ErrUnknownMessageType, env.Type)
	}
}
