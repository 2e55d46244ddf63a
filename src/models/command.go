package models

// -----------------------------------------------------------------------------
// Control commands (supervisor -> worker)
// -----------------------------------------------------------------------------

type CommandType string

const (
	CmdConnectSource CommandType = "connect-source"
	CmdStartServer   CommandType = "start-server"
	CmdGetStatus     CommandType = "get-status"
	CmdQuit          CommandType = "quit"
)

// DefaultPort is the client listener port used when none is configured.
const DefaultPort = 8765

type MCommand struct {
	Type CommandType `json:"type"`
	Port int         `json:"port,omitempty"`
}
